package service

import (
	"context"
	"fmt"
	"strings"

	"donkey-remote-be/internal/dto"
	"donkey-remote-be/internal/pkg/logger"
	"donkey-remote-be/pkg/tags"
)

type ITagService interface {
	GetAll(ctx context.Context) (*dto.TagsResponse, error)
	Tag(ctx context.Context, tag string, req *dto.UpdateTagRequest) (*dto.TagsResponse, error)
	Untag(ctx context.Context, sessionID, tag string) (*dto.TagsResponse, error)
}

type tagService struct {
	store  *tags.Store
	logger logger.ILogger
}

func NewTagService(store *tags.Store, log logger.ILogger) ITagService {
	return &tagService{store: store, logger: log}
}

func (s *tagService) GetAll(ctx context.Context) (*dto.TagsResponse, error) {
	doc, err := s.store.Load()
	if err != nil {
		return nil, err
	}
	return toTagsResponse(doc), nil
}

func (s *tagService) Tag(ctx context.Context, tag string, req *dto.UpdateTagRequest) (*dto.TagsResponse, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return nil, fmt.Errorf("%w: empty tag", ErrInvalidTag)
	}
	doc, err := s.store.AddToTargets(tag, req.Targets)
	if err != nil {
		return nil, err
	}
	s.logger.Info("TagService", "Tag added", map[string]interface{}{"tag": tag, "targets": len(req.Targets)})
	return toTagsResponse(doc), nil
}

func (s *tagService) Untag(ctx context.Context, sessionID, tag string) (*dto.TagsResponse, error) {
	doc, err := s.store.RemoveFromSession(sessionID, tag)
	if err != nil {
		return nil, err
	}
	s.logger.Info("TagService", "Tag removed", map[string]interface{}{"tag": tag, "session_id": sessionID})
	return toTagsResponse(doc), nil
}

func toTagsResponse(doc tags.Document) *dto.TagsResponse {
	return &dto.TagsResponse{
		AllTags:  doc.AllTags,
		Sessions: doc.Sessions,
		Targets:  doc.Targets,
	}
}
