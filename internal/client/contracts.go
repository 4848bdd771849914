package client

import (
	"context"
	"fmt"

	"github.com/earth-sentinel/sentinel-dash/internal/domain/entity"
)

type contractsResponse struct {
	Status    string        `json:"status"`
	Contracts []contractDTO `json:"contracts"`
}

type contractDTO struct {
	ContractID          wireID                      `json:"contract_id"`
	Status              string                      `json:"status"`
	Conditions          []entity.ContractCondition  `json:"conditions"`
	PaymentInstructions []entity.PaymentInstruction `json:"payment_instructions"`
	ExecutionHistory    []entity.ExecutionRecord    `json:"execution_history"`
	CreatedAt           string                      `json:"created_at"`
}

func (d contractDTO) toEntity() entity.Contract {
	return entity.Contract{
		ID:                  string(d.ContractID),
		Status:              entity.ContractStatus(d.Status),
		Conditions:          d.Conditions,
		PaymentInstructions: d.PaymentInstructions,
		ExecutionHistory:    d.ExecutionHistory,
		CreatedAt:           parseTimestamp(d.CreatedAt),
	}
}

// ListContracts returns every known contract, refreshed wholesale.
func (c *Client) ListContracts(ctx context.Context) ([]entity.Contract, error) {
	ret := contractsResponse{}

	err := c.getJSON(ctx, "/contracts", &ret)
	if err != nil {
		return nil, fmt.Errorf("failed to list contracts: %w", err)
	}

	contracts := make([]entity.Contract, 0, len(ret.Contracts))
	for _, dto := range ret.Contracts {
		contracts = append(contracts, dto.toEntity())
	}

	return contracts, nil
}

// AutoTriggerContracts asks the contract service to evaluate and execute
// every active contract against the given risk assessment.
func (c *Client) AutoTriggerContracts(ctx context.Context, riskAssessmentID string) error {
	body := map[string]interface{}{
		"risk_assessment_id": riskAssessmentID,
	}

	err := c.postJSON(ctx, "/contracts/auto-trigger", body, nil)
	if err != nil {
		return fmt.Errorf("failed to auto-trigger contracts: %w", err)
	}

	return nil
}
