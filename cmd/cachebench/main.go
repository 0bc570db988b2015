package main

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"os"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/d60-Lab/yatube/config"
	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/router"
	"github.com/d60-Lab/yatube/pkg/database"
	"github.com/d60-Lab/yatube/pkg/logger"
)

// cachebench 对比首页在缓存命中与未命中时的延迟。
// 需要先用 cmd/seed 写入数据；redis 与数据库按 config 连接。
func main() {
	ctx := context.Background()
	cfg := must(config.Load())
	mustDo(logger.Init("warn", "console"))
	gin.SetMode(gin.ReleaseMode)

	db := must(database.InitDB(cfg))
	defer database.Close(db)
	mustDo(model.AutoMigrate(db))

	rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	defer rdb.Close()
	mustDo(rdb.Ping(ctx).Err())

	app := must(router.New(router.Options{Config: cfg, DB: db, Redis: rdb}))

	N := 2000
	if s := os.Getenv("N"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			N = v
		}
	}
	CONC := 8
	if s := os.Getenv("CONC"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v > 0 {
			CONC = v
		}
	}

	var posts int64
	mustDo(db.Model(&model.Post{}).Count(&posts).Error)
	pages := int(posts+9) / 10
	if pages < 1 {
		pages = 1
	}
	fmt.Printf("posts=%d pages=%d N=%d CONC=%d ttl=%v\n", posts, pages, N, CONC, cfg.Cache.IndexTTL)

	prefix := cfg.Cache.IndexPrefix
	paths := make([]string, N)
	for i := range paths {
		paths[i] = "/?page=" + strconv.Itoa(1+rand.Intn(pages))
	}

	// miss: 每次请求前清空前缀
	miss := run(N, 1, func(i int) time.Duration {
		_ = must(app.PageCache.Clear(ctx, prefix))
		return hit(app.Engine, paths[i])
	})
	missCounters := app.PageCache.Counters()

	// 预热后全部命中
	_ = must(app.PageCache.Clear(ctx, prefix))
	for p := 1; p <= pages; p++ {
		hit(app.Engine, "/?page="+strconv.Itoa(p))
	}
	app.PageCache.ResetCounters()
	warm := run(N, CONC, func(i int) time.Duration { return hit(app.Engine, paths[i]) })
	warmCounters := app.PageCache.Counters()

	report("miss", miss)
	fmt.Printf("  counters hits=%d misses=%d\n", missCounters.Hits, missCounters.Misses)
	report("hit", warm)
	fmt.Printf("  counters hits=%d misses=%d\n", warmCounters.Hits, warmCounters.Misses)
	if m := pct(warm, 0.50); m > 0 {
		fmt.Printf("p50 speedup: %.1fx\n", float64(pct(miss, 0.50))/float64(m))
	}
}

func hit(h http.Handler, path string) time.Duration {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	start := time.Now()
	h.ServeHTTP(w, req)
	d := time.Since(start)
	if w.Code != http.StatusOK {
		panic(fmt.Sprintf("GET %s: status %d", path, w.Code))
	}
	return d
}

func run(n, conc int, fn func(i int) time.Duration) []time.Duration {
	lat := make([]time.Duration, n)
	feed := make(chan int, n)
	for i := 0; i < n; i++ {
		feed <- i
	}
	close(feed)
	var wg sync.WaitGroup
	for w := 0; w < conc; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range feed {
				lat[i] = fn(i)
			}
		}()
	}
	wg.Wait()
	return lat
}

func report(name string, vs []time.Duration) {
	var total time.Duration
	for _, v := range vs {
		total += v
	}
	avg := time.Duration(0)
	if len(vs) > 0 {
		avg = total / time.Duration(len(vs))
	}
	fmt.Printf("%-5s n=%d avg=%v p50=%v p95=%v p99=%v\n",
		name, len(vs), avg, pct(vs, 0.50), pct(vs, 0.95), pct(vs, 0.99))
}

func pct(vs []time.Duration, p float64) time.Duration {
	if len(vs) == 0 {
		return 0
	}
	sorted := append([]time.Duration(nil), vs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	idx := int(math.Ceil(p*float64(len(sorted)))) - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func mustDo(err error) {
	if err != nil {
		panic(err)
	}
}
