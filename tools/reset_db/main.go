package main

import (
	"database/sql"
	"fmt"
	"log"
	"os"

	_ "github.com/go-sql-driver/mysql"
	"gopkg.in/yaml.v3"
)

// 开发辅助工具：清空全部业务表数据并重置自增ID，保留表结构
// 按外键依赖从子表到父表的顺序清理

type Config struct {
	Database struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		Database string `yaml:"database"`
		Charset  string `yaml:"charset"`
	} `yaml:"database"`
}

// 子表在前
var tables = []string{
	"pulse_reaction",
	"pulse_recipient",
	"pulse",
	"circle_member",
	"circle",
	"notification",
	"push_subscription",
	"friendship_stat",
	"friendship",
	"friend_request",
	"user",
}

func main() {
	config := loadConfig()

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=True&loc=Local",
		config.Database.Username,
		config.Database.Password,
		config.Database.Host,
		config.Database.Port,
		config.Database.Database,
		config.Database.Charset,
	)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("数据库连接测试失败: %v", err)
	}

	fmt.Println("数据库连接成功")
	fmt.Printf("数据库: %s\n", config.Database.Database)

	fmt.Printf("\n警告: 该操作将清空以下表的全部数据: %v\n", tables)
	fmt.Print("输入 'YES' 确认: ")
	var confirm string
	fmt.Scanln(&confirm)
	if confirm != "YES" {
		fmt.Println("操作已取消")
		return
	}

	_, _ = db.Exec("SET FOREIGN_KEY_CHECKS=0")

	for _, table := range tables {
		fmt.Printf("清空表 %s... ", table)
		if _, err := db.Exec(fmt.Sprintf("DELETE FROM %s", table)); err != nil {
			fmt.Printf("失败: %v\n", err)
		} else {
			fmt.Println("完成")
		}
	}

	fmt.Println("\n重置自增ID...")
	for _, table := range tables {
		fmt.Printf("重置 %s 自增ID... ", table)
		if _, err := db.Exec(fmt.Sprintf("ALTER TABLE %s AUTO_INCREMENT = 1", table)); err != nil {
			fmt.Printf("失败: %v\n", err)
		} else {
			fmt.Println("完成")
		}
	}

	_, _ = db.Exec("SET FOREIGN_KEY_CHECKS=1")

	fmt.Println("\n数据库重置完成，表结构保留，自增ID已归1")
}

func loadConfig() *Config {
	data, err := os.ReadFile("config/config.yaml")
	if err != nil {
		fmt.Println("未找到配置文件，使用默认配置")
		cfg := &Config{}
		cfg.Database.Host = "localhost"
		cfg.Database.Port = 3306
		cfg.Database.Username = "pulse_user"
		cfg.Database.Password = "pulse_pass"
		cfg.Database.Database = "pulse"
		cfg.Database.Charset = "utf8mb4"
		return cfg
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		log.Fatalf("配置文件解析失败: %v", err)
	}
	return &cfg
}
