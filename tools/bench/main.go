package main

import (
	"fmt"
	"net/http"
	"os"
	"runtime"
	"strconv"
	"sync"
	"time"
)

// 开发辅助工具：对本地服务做简单的并发压测并采样运行时指标
// 用法: go run tools/bench/main.go [并发数] [每协程请求数] [监控秒数]

// -------------------- 运行时监控 --------------------

type SystemStats struct {
	Timestamp   time.Time
	MemoryUsage float64
	MemoryTotal uint64
	MemoryUsed  uint64
	Goroutines  int
}

type Monitor struct {
	stats    []SystemStats
	interval time.Duration
	stopChan chan struct{}
}

func NewMonitor(interval time.Duration) *Monitor {
	return &Monitor{
		stats:    make([]SystemStats, 0, 512),
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

func (m *Monitor) collectStats() SystemStats {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	stats := SystemStats{
		Timestamp:   time.Now(),
		MemoryTotal: ms.Sys,
		MemoryUsed:  ms.Alloc,
		Goroutines:  runtime.NumGoroutine(),
	}
	if ms.Sys > 0 {
		stats.MemoryUsage = float64(ms.Alloc) / float64(ms.Sys) * 100
	}
	m.stats = append(m.stats, stats)
	return stats
}

func (m *Monitor) Start() {
	go func() {
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s := m.collectStats()
				fmt.Printf("[%s] 内存: %.1f%% (%.1fMB/%.1fMB) | Goroutines: %d\n",
					s.Timestamp.Format("15:04:05"), s.MemoryUsage,
					float64(s.MemoryUsed)/1024/1024, float64(s.MemoryTotal)/1024/1024,
					s.Goroutines,
				)
			case <-m.stopChan:
				return
			}
		}
	}()
}

func (m *Monitor) Stop() { close(m.stopChan) }

func (m *Monitor) GenerateReport() {
	if len(m.stats) == 0 {
		fmt.Println("没有监控数据")
		return
	}
	var sumMem float64
	var sumGo, maxGo int
	var maxMem float64
	for _, s := range m.stats {
		sumMem += s.MemoryUsage
		sumGo += s.Goroutines
		if s.MemoryUsage > maxMem {
			maxMem = s.MemoryUsage
		}
		if s.Goroutines > maxGo {
			maxGo = s.Goroutines
		}
	}
	n := float64(len(m.stats))
	fmt.Println("\n=== 运行时监控报告 ===")
	fmt.Printf("持续: %v\n", m.stats[len(m.stats)-1].Timestamp.Sub(m.stats[0].Timestamp))
	fmt.Printf("平均内存: %.1f%%, 峰值内存: %.1f%%\n", sumMem/n, maxMem)
	fmt.Printf("平均Goroutine: %d, 峰值Goroutine: %d\n", int(float64(sumGo)/n+0.5), maxGo)
}

// -------------------- HTTP 并发压测 --------------------

type APITestStats struct {
	TotalRequests      int
	SuccessfulRequests int
	FailedRequests     int
	AverageLatency     time.Duration
	MaxLatency         time.Duration
	MinLatency         time.Duration
	mu                 sync.Mutex
}

func (s *APITestStats) Add(success bool, latency time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.TotalRequests++
	if !success {
		s.FailedRequests++
		return
	}
	s.SuccessfulRequests++
	if s.AverageLatency == 0 {
		s.AverageLatency = latency
		s.MaxLatency = latency
		s.MinLatency = latency
		return
	}
	s.AverageLatency = (s.AverageLatency + latency) / 2
	if latency > s.MaxLatency {
		s.MaxLatency = latency
	}
	if latency < s.MinLatency {
		s.MinLatency = latency
	}
}

func hit(client *http.Client, url string, stats *APITestStats) {
	start := time.Now()
	resp, err := client.Get(url)
	lat := time.Since(start)
	if err != nil {
		stats.Add(false, lat)
		return
	}
	resp.Body.Close()
	stats.Add(resp.StatusCode == 200, lat)
}

func runHTTPBench(base string, concurrency, perGoroutine int) {
	fmt.Println("\n=== HTTP API并发测试开始 ===")
	fmt.Printf("目标: %s 并发: %d 每协程请求: %d\n", base, concurrency, perGoroutine)

	// 无需认证的端点
	endpoints := []string{"/health", "/api/v1/push/public-key"}

	stats := &APITestStats{}
	client := &http.Client{Timeout: 8 * time.Second}
	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < concurrency; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < perGoroutine; j++ {
				hit(client, base+endpoints[(id+j)%len(endpoints)], stats)
				time.Sleep(5 * time.Millisecond)
			}
		}(i)
	}
	wg.Wait()

	took := time.Since(start)
	fmt.Println("\n=== HTTP API测试结果 ===")
	fmt.Printf("耗时: %v\n", took)
	fmt.Printf("总请求: %d 成功: %d 失败: %d\n", stats.TotalRequests, stats.SuccessfulRequests, stats.FailedRequests)
	fmt.Printf("延迟 平均: %v 最大: %v 最小: %v\n", stats.AverageLatency, stats.MaxLatency, stats.MinLatency)
	if took > 0 {
		fmt.Printf("QPS: %.2f\n", float64(stats.SuccessfulRequests)/took.Seconds())
	}
	if stats.TotalRequests > 0 {
		fmt.Printf("成功率: %.2f%%\n", float64(stats.SuccessfulRequests)/float64(stats.TotalRequests)*100)
	}
}

// -------------------- 入口 --------------------

func argInt(index, def int) int {
	if len(os.Args) > index {
		if v, err := strconv.Atoi(os.Args[index]); err == nil {
			return v
		}
	}
	return def
}

func main() {
	concurrency := argInt(1, 5)
	perGoroutine := argInt(2, 10)
	monitorSeconds := argInt(3, 20)

	baseURL := "http://localhost:8080"

	fmt.Println("=== Pulse 服务并发与监控测试 ===")
	fmt.Printf("开始时间: %s\n", time.Now().Format("2006-01-02 15:04:05"))
	fmt.Printf("目标: %s 并发: %d 每协程请求: %d 监控: %ds\n", baseURL, concurrency, perGoroutine, monitorSeconds)

	mon := NewMonitor(1 * time.Second)
	mon.Start()
	go func() {
		time.Sleep(time.Duration(monitorSeconds) * time.Second)
		mon.Stop()
	}()

	runHTTPBench(baseURL, concurrency, perGoroutine)

	time.Sleep(time.Duration(monitorSeconds+1) * time.Second)
	mon.GenerateReport()

	fmt.Println("\n=== 测试完成 ===")
}
