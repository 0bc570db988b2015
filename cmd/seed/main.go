package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/d60-Lab/yatube/config"
	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/repository"
	"github.com/d60-Lab/yatube/internal/service"
	"github.com/d60-Lab/yatube/pkg/database"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func envInt(name string, def int) int {
	if s := os.Getenv(name); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return def
}

var groups = []model.Group{
	{Title: "Лев Толстой", Slug: "leo", Description: "Всё о жизни и творчестве Льва Толстого"},
	{Title: "Котики", Slug: "cats", Description: "Фотографии и истории про котов"},
	{Title: "Путешествия", Slug: "travel", Description: "Куда поехать и что посмотреть"},
}

var phrases = []string{
	"Все счастливые семьи похожи друг на друга",
	"Сегодня был отличный день",
	"Кот опять уронил вазу",
	"Поезд прибыл на станцию ровно в полночь",
	"Нашёл новое место для прогулок",
	"Пишу пост с телефона",
}

// seed 写入演示数据：用户、分组、帖子、评论和关注关系。按用户名和 slug 幂等。
func main() {
	cfg := must(config.Load())
	db := must(database.InitDB(cfg))
	defer database.Close(db)
	if err := model.AutoMigrate(db); err != nil {
		panic(err)
	}

	N := envInt("N", 20)
	POSTS := envInt("POSTS", 5)
	CONC := envInt("CONC", 4)
	ctx := context.Background()
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))

	groupRepo := repository.NewGroupRepository(db)
	for i := range groups {
		if err := groupRepo.Create(ctx, &groups[i]); err != nil {
			panic(err)
		}
	}
	allGroups := must(groupRepo.List(ctx))

	hash := must(bcrypt.GenerateFromPassword([]byte("password"), bcrypt.DefaultCost))
	users := make([]*model.User, 0, N)
	t0 := time.Now()
	for i := 0; i < N; i++ {
		u := &model.User{
			Username: fmt.Sprintf("user%d", i),
			Email:    fmt.Sprintf("user%d@example.com", i),
			Password: string(hash),
			IsActive: true,
		}
		err := db.Where(model.User{Username: u.Username}).FirstOrCreate(u).Error
		if err != nil {
			panic(err)
		}
		users = append(users, u)
	}
	usersDur := time.Since(t0)

	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	posts := service.NewPostService(postRepo, groupRepo, commentRepo)

	t1 := time.Now()
	created := 0
	for _, u := range users {
		have := must(posts.CountByAuthor(ctx, u.ID))
		for j := int(have); j < POSTS; j++ {
			in := service.PostInput{Text: phrases[rnd.Intn(len(phrases))]}
			if len(allGroups) > 0 && rnd.Intn(3) > 0 {
				gid := allGroups[rnd.Intn(len(allGroups))].ID
				in.GroupID = &gid
			}
			p := must(posts.Create(ctx, u.ID, in))
			created++
			if rnd.Intn(2) == 0 {
				commenter := users[rnd.Intn(len(users))]
				_ = must(posts.AddComment(ctx, commenter.ID, p.ID, "Отличный пост!"))
			}
		}
	}
	postsDur := time.Since(t1)

	// 每个用户关注 user0 以及一个随机作者
	rel := service.NewRelationshipService(repository.NewFollowRepository(db))
	workers := CONC
	if workers > len(users) {
		workers = len(users)
	}
	// sqlite 只允许单个写连接
	if cfg.Database.Driver == "sqlite" {
		workers = 1
	}
	type pair struct{ user, author uint }
	feed := make(chan pair, 2*len(users))
	for _, u := range users {
		feed <- pair{u.ID, users[0].ID}
		feed <- pair{u.ID, users[rnd.Intn(len(users))].ID}
	}
	close(feed)
	errCh := make(chan error, workers)
	t2 := time.Now()
	for w := 0; w < workers; w++ {
		go func() {
			var firstErr error
			for p := range feed {
				err := rel.Follow(ctx, p.user, p.author)
				if err != nil && !errors.Is(err, service.ErrFollowSelf) && firstErr == nil {
					firstErr = err
				}
			}
			errCh <- firstErr
		}()
	}
	for w := 0; w < workers; w++ {
		if err := <-errCh; err != nil {
			panic(err)
		}
	}
	followDur := time.Since(t2)

	stats := must(rel.Stats(ctx, users[0].ID))
	fmt.Printf("N=%d, POSTS=%d, CONC=%d\n", N, POSTS, CONC)
	fmt.Printf("users: %d in %v\n", len(users), usersDur)
	fmt.Printf("posts created: %d in %v\n", created, postsDur)
	fmt.Printf("follows in %v, %s has %d followers\n", followDur, users[0].Username, stats.Followers)
	printTotals(db)
}

func printTotals(db *gorm.DB) {
	for _, table := range []string{"users", "groups", "posts", "comments", "follows"} {
		var n int64
		if err := db.Table(table).Count(&n).Error; err != nil {
			panic(err)
		}
		fmt.Printf("%-10s %d\n", table, n)
	}
}
