package service

import (
	"context"

	"github.com/d60-Lab/yatube/internal/model"
	"github.com/d60-Lab/yatube/internal/repository"
)

type GroupService interface {
	List(ctx context.Context) ([]*model.Group, error)
	GetBySlug(ctx context.Context, slug string) (*model.Group, error)
}

type groupService struct{ groups repository.GroupRepository }

func NewGroupService(groups repository.GroupRepository) GroupService {
	return &groupService{groups: groups}
}

func (s *groupService) List(ctx context.Context) ([]*model.Group, error) {
	return s.groups.List(ctx)
}

func (s *groupService) GetBySlug(ctx context.Context, slug string) (*model.Group, error) {
	g, err := s.groups.GetBySlug(ctx, slug)
	if err != nil {
		return nil, notFound(err)
	}
	return g, nil
}
