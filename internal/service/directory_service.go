package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/jesusbgwork-hub/ai-agent-directory/internal/domain"
	"github.com/jesusbgwork-hub/ai-agent-directory/internal/repository"
)

var ErrMissingFields = errors.New("required fields: name, description, payment_endpoint")

type RegisterInput struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	PaymentEndpoint string `json:"payment_endpoint"`
}

// Receipt identifies the verified payment a business operation runs under.
// Every operation accepting one must leave exactly one ledger row behind.
type Receipt struct {
	Endpoint   string
	Reference  string
	AmountUSDC float64
}

type HealthStats struct {
	AgentsRegistered  int64
	TotalTransactions int64
	TotalRevenueUSDC  float64
}

type DirectoryService struct {
	db     *gorm.DB
	agents repository.AgentRepository
	ledger repository.TransactionRepository
	logger *slog.Logger
}

func NewDirectoryService(db *gorm.DB, agents repository.AgentRepository, ledger repository.TransactionRepository, logger *slog.Logger) *DirectoryService {
	return &DirectoryService{db: db, agents: agents, ledger: ledger, logger: logger}
}

// Register inserts the agent and its success ledger row in one database
// transaction, so a crash cannot charge without a trace. A duplicate name
// consumes the payment anyway: the verification already succeeded, so the
// attempt is recorded as "duplicate" and the conflict surfaced.
func (s *DirectoryService) Register(ctx context.Context, input RegisterInput, receipt Receipt) (*domain.Agent, error) {
	agent := &domain.Agent{
		Name:            strings.TrimSpace(input.Name),
		Description:     strings.TrimSpace(input.Description),
		PaymentEndpoint: strings.TrimSpace(input.PaymentEndpoint),
		RegisteredAt:    time.Now().UTC(),
	}
	if agent.Name == "" || agent.Description == "" || agent.PaymentEndpoint == "" {
		if lerr := s.ledger.Append(&domain.Transaction{
			Endpoint:    receipt.Endpoint,
			PaymentHash: receipt.Reference,
			AmountUSDC:  receipt.AmountUSDC,
			Status:      domain.TxStatusFailed,
		}); lerr != nil {
			return nil, fmt.Errorf("record failed attempt: %w", lerr)
		}
		return nil, ErrMissingFields
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repository.NewAgentRepository(tx).Create(agent); err != nil {
			return err
		}
		return repository.NewTransactionRepository(tx).Append(&domain.Transaction{
			Endpoint:    receipt.Endpoint,
			PaymentHash: receipt.Reference,
			AmountUSDC:  receipt.AmountUSDC,
			Status:      domain.TxStatusSuccess,
		})
	})
	if err != nil {
		if errors.Is(err, repository.ErrAgentNameTaken) {
			if lerr := s.ledger.Append(&domain.Transaction{
				Endpoint:    receipt.Endpoint,
				PaymentHash: receipt.Reference,
				AmountUSDC:  receipt.AmountUSDC,
				Status:      domain.TxStatusDuplicate,
			}); lerr != nil {
				return nil, fmt.Errorf("record duplicate attempt: %w", lerr)
			}
			return nil, repository.ErrAgentNameTaken
		}
		return nil, err
	}

	s.logger.Info("agent registered", "agent", agent.Name, "id", agent.ID, "tx", receipt.Reference)
	return agent, nil
}

// Search returns agents whose name or description contains the query and
// records the paid call.
func (s *DirectoryService) Search(ctx context.Context, query string, receipt Receipt) ([]domain.Agent, error) {
	agents, err := s.agents.Search(query)
	if err != nil {
		return nil, err
	}
	if err := s.ledger.Append(&domain.Transaction{
		Endpoint:    receipt.Endpoint,
		PaymentHash: receipt.Reference,
		AmountUSDC:  receipt.AmountUSDC,
		Status:      domain.TxStatusSuccess,
	}); err != nil {
		return nil, err
	}
	s.logger.Info("search served", "query", query, "results", len(agents), "tx", receipt.Reference)
	return agents, nil
}

func (s *DirectoryService) Health(ctx context.Context) (HealthStats, error) {
	agentCount, err := s.agents.Count()
	if err != nil {
		return HealthStats{}, err
	}
	ledger, err := s.ledger.Stats()
	if err != nil {
		return HealthStats{}, err
	}
	return HealthStats{
		AgentsRegistered:  agentCount,
		TotalTransactions: ledger.SuccessCount,
		TotalRevenueUSDC:  math.Round(ledger.RevenueUSDC*10000) / 10000,
	}, nil
}
