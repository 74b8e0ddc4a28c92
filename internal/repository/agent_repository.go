package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/jesusbgwork-hub/ai-agent-directory/internal/domain"
)

var ErrAgentNameTaken = errors.New("agent name already registered")

type AgentRepository interface {
	Create(agent *domain.Agent) error
	Search(query string) ([]domain.Agent, error)
	Count() (int64, error)
}

type GormAgentRepository struct{ db *gorm.DB }

func NewAgentRepository(db *gorm.DB) AgentRepository {
	return &GormAgentRepository{db: db}
}

func (r *GormAgentRepository) Create(agent *domain.Agent) error {
	if err := r.db.Create(agent).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrAgentNameTaken
		}
		return err
	}
	return nil
}

// Search matches the query as a substring of name or description. An empty
// query returns every agent.
func (r *GormAgentRepository) Search(query string) ([]domain.Agent, error) {
	var agents []domain.Agent
	q := r.db.Order("id asc")
	if query != "" {
		pattern := "%" + query + "%"
		q = q.Where("name LIKE ? OR description LIKE ?", pattern, pattern)
	}
	if err := q.Find(&agents).Error; err != nil {
		return nil, err
	}
	return agents, nil
}

func (r *GormAgentRepository) Count() (int64, error) {
	var n int64
	if err := r.db.Model(&domain.Agent{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
