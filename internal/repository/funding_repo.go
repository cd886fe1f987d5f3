package repository

import (
	"context"

	"github.com/faruq2021/KogiExportHub/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// FundingRepository defines data access for proposals, funding requests and contributions
type FundingRepository interface {
	CreateProposal(ctx context.Context, proposal *model.InfrastructureProposal) error
	UpdateProposal(ctx context.Context, proposal *model.InfrastructureProposal) error
	FindProposalByID(ctx context.Context, id uuid.UUID) (*model.InfrastructureProposal, error)
	ListProposals(ctx context.Context, status string, page, limit int) ([]model.InfrastructureProposal, int64, error)

	CreateRequest(ctx context.Context, request *model.FundingRequest) error
	UpdateRequest(ctx context.Context, request *model.FundingRequest) error
	FindRequestByID(ctx context.Context, id uuid.UUID) (*model.FundingRequest, error)
	ListRequestsByProposal(ctx context.Context, proposalID uuid.UUID) ([]model.FundingRequest, error)

	CreateContribution(ctx context.Context, contribution *model.FundingContribution) error
	UpdateContribution(ctx context.Context, contribution *model.FundingContribution) error
	FindContributionByReference(ctx context.Context, reference string) (*model.FundingContribution, error)
	SumCompletedContributions(ctx context.Context, requestID uuid.UUID) (float64, error)
}

type fundingRepository struct {
	db *gorm.DB
}

func NewFundingRepository(db *gorm.DB) FundingRepository {
	return &fundingRepository{db: db}
}

func (r *fundingRepository) CreateProposal(ctx context.Context, proposal *model.InfrastructureProposal) error {
	return GetDB(ctx, r.db).Create(proposal).Error
}

func (r *fundingRepository) UpdateProposal(ctx context.Context, proposal *model.InfrastructureProposal) error {
	return GetDB(ctx, r.db).Save(proposal).Error
}

func (r *fundingRepository) FindProposalByID(ctx context.Context, id uuid.UUID) (*model.InfrastructureProposal, error) {
	var proposal model.InfrastructureProposal
	if err := GetDB(ctx, r.db).
		Preload("Location").
		Preload("Proposer").
		First(&proposal, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &proposal, nil
}

func (r *fundingRepository) ListProposals(ctx context.Context, status string, page, limit int) ([]model.InfrastructureProposal, int64, error) {
	var proposals []model.InfrastructureProposal
	var total int64

	query := GetDB(ctx, r.db).Model(&model.InfrastructureProposal{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.
		Preload("Location").
		Order("created_at desc").
		Offset(offset).Limit(limit).
		Find(&proposals).Error; err != nil {
		return nil, 0, err
	}

	return proposals, total, nil
}

func (r *fundingRepository) CreateRequest(ctx context.Context, request *model.FundingRequest) error {
	return GetDB(ctx, r.db).Create(request).Error
}

func (r *fundingRepository) UpdateRequest(ctx context.Context, request *model.FundingRequest) error {
	return GetDB(ctx, r.db).Save(request).Error
}

func (r *fundingRepository) FindRequestByID(ctx context.Context, id uuid.UUID) (*model.FundingRequest, error) {
	var request model.FundingRequest
	if err := GetDB(ctx, r.db).
		Preload("Proposal").
		Preload("Requester").
		First(&request, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *fundingRepository) ListRequestsByProposal(ctx context.Context, proposalID uuid.UUID) ([]model.FundingRequest, error) {
	var requests []model.FundingRequest
	if err := GetDB(ctx, r.db).
		Where("proposal_id = ?", proposalID).
		Order("created_at desc").
		Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *fundingRepository) CreateContribution(ctx context.Context, contribution *model.FundingContribution) error {
	return GetDB(ctx, r.db).Create(contribution).Error
}

func (r *fundingRepository) UpdateContribution(ctx context.Context, contribution *model.FundingContribution) error {
	return GetDB(ctx, r.db).Save(contribution).Error
}

func (r *fundingRepository) FindContributionByReference(ctx context.Context, reference string) (*model.FundingContribution, error) {
	var contribution model.FundingContribution
	if err := GetDB(ctx, r.db).
		Preload("FundingRequest").
		First(&contribution, "transaction_reference = ?", reference).Error; err != nil {
		return nil, err
	}
	return &contribution, nil
}

func (r *fundingRepository) SumCompletedContributions(ctx context.Context, requestID uuid.UUID) (float64, error) {
	var total float64
	err := GetDB(ctx, r.db).Model(&model.FundingContribution{}).
		Where("funding_request_id = ? AND status = ?", requestID, model.ContributionCompleted).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&total).Error
	return total, err
}
