package websocket

import (
	"net/http"
	"strings"
	"time"

	"pulse/config"
	"pulse/internal/repository"
	dbPkg "pulse/pkg/db"
	"pulse/pkg/jwt"
	"pulse/pkg/redis"
	"pulse/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // 允许跨域
	},
}

// WsHandler Gin路由处理函数
// 客户端通过 /ws?token=<jwt> 建立连接，接收实时通知事件
func WsHandler(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		token = strings.TrimPrefix(c.GetHeader("Sec-WebSocket-Protocol"), "Bearer ")
	}
	if token == "" {
		response.Unauthorized(c, "缺少token")
		return
	}

	jwtSvc := c.MustGet("jwt_service").(*jwt.JWTService) // 需在main.go注入
	claims, err := jwtSvc.ValidateToken(token)
	if err != nil {
		response.Unauthorized(c, "token无效或已过期")
		return
	}
	userID := claims.UserID()
	if userID == 0 {
		response.Unauthorized(c, "token无效")
		return
	}

	// 回显子协议，避免客户端提示 "Server sent no subprotocol"
	respHeader := http.Header{}
	if protocol := c.GetHeader("Sec-WebSocket-Protocol"); protocol != "" {
		respHeader.Set("Sec-WebSocket-Protocol", protocol)
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, respHeader)
	if err != nil {
		return
	}

	client := &Client{
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, 256),
	}
	GetManager().AddClient(userID, client)

	// 连接建立后，设置用户状态为 online
	name := claims.UserName()
	if db := dbPkg.GetDB(); db != nil {
		userRepo := repository.NewUserRepository(db)
		_ = userRepo.UpdateStatus(userID, "online")
	}
	_ = redis.SetUserPresence(userID, name, "online")

	defer func() {
		GetManager().RemoveClient(userID)

		// 连接关闭后，设置用户状态为 offline
		if db := dbPkg.GetDB(); db != nil {
			userRepo := repository.NewUserRepository(db)
			_ = userRepo.UpdateStatus(userID, "offline")
		}
		_ = redis.SetUserPresence(userID, name, "offline")
	}()

	// 从上下文读取心跳配置
	wsCfg := c.MustGet("ws_config").(config.WebSocketConfig)

	// 启动写协程 + 定时发送ping心跳
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(wsCfg.PingInterval)
		defer ticker.Stop()
		for {
			select {
			case event, ok := <-client.Send:
				if !ok {
					return
				}
				_ = conn.WriteMessage(websocket.TextMessage, event)
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(5*time.Second)); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()

	// 读循环：仅用于检测断开与刷新读超时，通知通道是单向下行的
	conn.SetReadDeadline(time.Now().Add(wsCfg.ReadTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(wsCfg.ReadTimeout))
		return nil
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
		conn.SetReadDeadline(time.Now().Add(wsCfg.ReadTimeout))
	}
	close(done)
	_ = conn.Close()
}
