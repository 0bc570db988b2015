package service

import (
	"context"

	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/repository"
)

// RelationshipService 关系链服务
type RelationshipService interface {
	Follow(ctx context.Context, userID, authorID uint) error
	Unfollow(ctx context.Context, userID, authorID uint) error
	IsFollowing(ctx context.Context, userID, authorID uint) (bool, error)
	ListFollowing(ctx context.Context, userID uint, page, pageSize int) ([]*model.User, error)
	ListFans(ctx context.Context, authorID uint, page, pageSize int) ([]*model.User, error)
	Stats(ctx context.Context, userID uint) (RelationStats, error)
}

// RelationStats 个人主页上的关注数 / 粉丝数
type RelationStats struct {
	Followers int64 `json:"followers"`
	Following int64 `json:"following"`
}

type relationshipService struct {
	followRepo repository.FollowRepository
}

func NewRelationshipService(followRepo repository.FollowRepository) RelationshipService {
	return &relationshipService{followRepo: followRepo}
}

func (s *relationshipService) Follow(ctx context.Context, userID, authorID uint) error {
	if userID == authorID {
		return ErrFollowSelf
	}
	return s.followRepo.Create(ctx, userID, authorID)
}

func (s *relationshipService) Unfollow(ctx context.Context, userID, authorID uint) error {
	return s.followRepo.Delete(ctx, userID, authorID)
}

func (s *relationshipService) IsFollowing(ctx context.Context, userID, authorID uint) (bool, error) {
	if userID == 0 || userID == authorID {
		return false, nil
	}
	return s.followRepo.Exists(ctx, userID, authorID)
}

const (
	defaultPageSize = 10
	maxPageSize     = 100
	maxPage         = 1 << 20 // 防止 offset 溢出
)

// NormalizePage 把关系链列表的分页参数收敛到合法范围
func NormalizePage(page, pageSize int) (int, int) {
	switch {
	case page < 1:
		page = 1
	case page > maxPage:
		page = maxPage
	}
	switch {
	case pageSize < 1:
		pageSize = defaultPageSize
	case pageSize > maxPageSize:
		pageSize = maxPageSize
	}
	return page, pageSize
}

func normalizePage(page, pageSize int) (offset, limit int) {
	page, pageSize = NormalizePage(page, pageSize)
	return (page - 1) * pageSize, pageSize
}

func (s *relationshipService) ListFollowing(ctx context.Context, userID uint, page, pageSize int) ([]*model.User, error) {
	offset, limit := normalizePage(page, pageSize)
	items, err := s.followRepo.ListFollowings(ctx, userID, offset, limit)
	if err != nil {
		return nil, err
	}
	res := make([]*model.User, len(items))
	for i, it := range items {
		res[i] = &it.Author
	}
	return res, nil
}

func (s *relationshipService) ListFans(ctx context.Context, authorID uint, page, pageSize int) ([]*model.User, error) {
	offset, limit := normalizePage(page, pageSize)
	items, err := s.followRepo.ListFollowers(ctx, authorID, offset, limit)
	if err != nil {
		return nil, err
	}
	res := make([]*model.User, len(items))
	for i, it := range items {
		res[i] = &it.User
	}
	return res, nil
}

func (s *relationshipService) Stats(ctx context.Context, userID uint) (RelationStats, error) {
	var st RelationStats
	var err error
	if st.Followers, err = s.followRepo.CountFollowers(ctx, userID); err != nil {
		return st, err
	}
	if st.Following, err = s.followRepo.CountFollowings(ctx, userID); err != nil {
		return st, err
	}
	return st, nil
}
