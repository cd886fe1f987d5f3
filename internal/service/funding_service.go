package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/faruq2021/KogiExportHub/internal/model"
	"github.com/faruq2021/KogiExportHub/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateProposalRequest struct {
	Title         string `json:"title" binding:"required"`
	Description   string `json:"description"`
	EstimatedCost string `json:"estimated_cost" binding:"required"`
	LocationID    string `json:"location_id"`
}

type ReviewProposalRequest struct {
	Comments string `json:"comments"`
}

type CreateFundingRequestRequest struct {
	ProposalID      string `json:"proposal_id" binding:"required"`
	AmountRequested string `json:"amount_requested" binding:"required"`
	FundingType     string `json:"funding_type" binding:"required"` // Grant, Loan, Investment
}

type ContributeRequest struct {
	FundingRequestID string `json:"funding_request_id" binding:"required"`
	Amount           string `json:"amount" binding:"required"`
}

type ContributeResult struct {
	ContributionID string `json:"contribution_id"`
	PaymentLink    string `json:"payment_link"`
	TxRef          string `json:"tx_ref"`
}

type DisburseRequest struct {
	AccountNumber string `json:"account_number" binding:"required"`
	BankCode      string `json:"bank_code" binding:"required"`
}

type FundingProgress struct {
	RequestID      string `json:"request_id"`
	AmountApproved string `json:"amount_approved"`
	AmountRaised   string `json:"amount_raised"`
	PercentFunded  string `json:"percent_funded"`
}

// --- Interface ---

// FundingService manages infrastructure proposals, funding requests,
// contributor payments and the eventual disbursement of raised funds.
type FundingService interface {
	CreateProposal(ctx context.Context, proposerID string, req CreateProposalRequest) (*model.InfrastructureProposal, error)
	ListProposals(ctx context.Context, status string, page, limit int) ([]model.InfrastructureProposal, int64, error)
	GetProposal(ctx context.Context, id string) (*model.InfrastructureProposal, error)
	ApproveProposal(ctx context.Context, id, adminID string, req ReviewProposalRequest) (*model.InfrastructureProposal, error)
	RejectProposal(ctx context.Context, id, adminID string, req ReviewProposalRequest) (*model.InfrastructureProposal, error)

	CreateFundingRequest(ctx context.Context, requesterID string, req CreateFundingRequestRequest) (*model.FundingRequest, error)
	ListRequestsByProposal(ctx context.Context, proposalID string) ([]model.FundingRequest, error)
	GetFundingProgress(ctx context.Context, requestID string) (FundingProgress, error)

	Contribute(ctx context.Context, contributorID string, req ContributeRequest) (ContributeResult, error)
	// CompleteContributionByReference marks a verified contribution as
	// completed and flips the funding request to Funded once the raised total
	// covers the approved amount.
	CompleteContributionByReference(ctx context.Context, txRef string) (*model.FundingContribution, error)

	Disburse(ctx context.Context, requestID, adminID string, req DisburseRequest) (*model.FundingRequest, error)
	RefreshDisbursement(ctx context.Context, requestID string) (*model.FundingRequest, error)
}

type fundingService struct {
	fundingRepo    repository.FundingRepository
	userRepo       repository.UserRepository
	auditRepo      repository.AuditRepository
	paymentService PaymentService
	now            func() time.Time
}

func NewFundingService(
	fundingRepo repository.FundingRepository,
	userRepo repository.UserRepository,
	auditRepo repository.AuditRepository,
	paymentService PaymentService,
) FundingService {
	return &fundingService{
		fundingRepo:    fundingRepo,
		userRepo:       userRepo,
		auditRepo:      auditRepo,
		paymentService: paymentService,
		now:            time.Now,
	}
}

// --- Proposals ---

func (s *fundingService) CreateProposal(ctx context.Context, proposerID string, req CreateProposalRequest) (*model.InfrastructureProposal, error) {
	proposer, err := uuid.Parse(proposerID)
	if err != nil {
		return nil, fmt.Errorf("invalid proposer id: %w", err)
	}

	cost, err := decimal.NewFromString(req.EstimatedCost)
	if err != nil {
		return nil, fmt.Errorf("invalid estimated_cost: %w", err)
	}

	proposal := model.InfrastructureProposal{
		Title:         req.Title,
		Description:   req.Description,
		EstimatedCost: cost,
		ProposerID:    proposer,
		Status:        model.ProposalPending,
	}

	if req.LocationID != "" {
		locationID, err := uuid.Parse(req.LocationID)
		if err != nil {
			return nil, fmt.Errorf("invalid location_id: %w", err)
		}
		proposal.LocationID = &locationID
	}

	if err := s.fundingRepo.CreateProposal(ctx, &proposal); err != nil {
		return nil, fmt.Errorf("failed to create proposal: %w", err)
	}

	return &proposal, nil
}

func (s *fundingService) ListProposals(ctx context.Context, status string, page, limit int) ([]model.InfrastructureProposal, int64, error) {
	return s.fundingRepo.ListProposals(ctx, status, page, limit)
}

func (s *fundingService) GetProposal(ctx context.Context, id string) (*model.InfrastructureProposal, error) {
	proposalID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid proposal id: %w", err)
	}

	proposal, err := s.fundingRepo.FindProposalByID(ctx, proposalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("proposal not found")
		}
		return nil, fmt.Errorf("failed to fetch proposal: %w", err)
	}

	return proposal, nil
}

func (s *fundingService) ApproveProposal(ctx context.Context, id, adminID string, req ReviewProposalRequest) (*model.InfrastructureProposal, error) {
	return s.reviewProposal(ctx, id, adminID, model.ProposalApproved, model.ActionApproveProposal, req.Comments)
}

func (s *fundingService) RejectProposal(ctx context.Context, id, adminID string, req ReviewProposalRequest) (*model.InfrastructureProposal, error) {
	return s.reviewProposal(ctx, id, adminID, model.ProposalRejected, model.ActionRejectProposal, req.Comments)
}

func (s *fundingService) reviewProposal(ctx context.Context, id, adminID, status, action, comments string) (*model.InfrastructureProposal, error) {
	proposal, err := s.GetProposal(ctx, id)
	if err != nil {
		return nil, err
	}
	if proposal.Status != model.ProposalPending {
		return nil, fmt.Errorf("proposal is already %s", proposal.Status)
	}

	now := s.now()
	proposal.Status = status
	proposal.AdminComments = comments
	proposal.ApprovalDate = &now

	if err := s.fundingRepo.UpdateProposal(ctx, proposal); err != nil {
		return nil, fmt.Errorf("failed to update proposal: %w", err)
	}

	s.writeAuditLog(ctx, adminID, action, proposal.ID.String(), proposal.Title, map[string]string{
		"status":   status,
		"comments": comments,
	})

	return proposal, nil
}

// --- Funding requests ---

func (s *fundingService) CreateFundingRequest(ctx context.Context, requesterID string, req CreateFundingRequestRequest) (*model.FundingRequest, error) {
	requester, err := uuid.Parse(requesterID)
	if err != nil {
		return nil, fmt.Errorf("invalid requester id: %w", err)
	}

	proposal, err := s.GetProposal(ctx, req.ProposalID)
	if err != nil {
		return nil, err
	}
	if proposal.Status != model.ProposalApproved {
		return nil, fmt.Errorf("funding requests are only allowed against approved proposals")
	}

	amount, err := decimal.NewFromString(req.AmountRequested)
	if err != nil {
		return nil, fmt.Errorf("invalid amount_requested: %w", err)
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("amount_requested must be positive")
	}

	request := model.FundingRequest{
		ProposalID:      proposal.ID,
		RequesterID:     requester,
		AmountRequested: amount,
		// Requests auto-approve for the requested amount; a manual review
		// step can overwrite AmountApproved later.
		AmountApproved: &amount,
		FundingType:    req.FundingType,
		Status:         model.ProposalApproved,
	}

	if err := s.fundingRepo.CreateRequest(ctx, &request); err != nil {
		return nil, fmt.Errorf("failed to create funding request: %w", err)
	}

	return &request, nil
}

func (s *fundingService) ListRequestsByProposal(ctx context.Context, proposalID string) ([]model.FundingRequest, error) {
	id, err := uuid.Parse(proposalID)
	if err != nil {
		return nil, fmt.Errorf("invalid proposal id: %w", err)
	}
	return s.fundingRepo.ListRequestsByProposal(ctx, id)
}

func (s *fundingService) GetFundingProgress(ctx context.Context, requestID string) (FundingProgress, error) {
	id, err := uuid.Parse(requestID)
	if err != nil {
		return FundingProgress{}, fmt.Errorf("invalid funding request id: %w", err)
	}

	request, err := s.fundingRepo.FindRequestByID(ctx, id)
	if err != nil {
		return FundingProgress{}, fmt.Errorf("funding request not found: %w", err)
	}

	raised, err := s.fundingRepo.SumCompletedContributions(ctx, id)
	if err != nil {
		return FundingProgress{}, fmt.Errorf("failed to sum contributions: %w", err)
	}

	raisedDec := decimal.NewFromFloat(raised)
	approved := decimal.Zero
	if request.AmountApproved != nil {
		approved = *request.AmountApproved
	}

	percent := decimal.Zero
	if approved.GreaterThan(decimal.Zero) {
		percent = raisedDec.Div(approved).Mul(decimal.NewFromInt(100)).Round(2)
	}

	return FundingProgress{
		RequestID:      request.ID.String(),
		AmountApproved: approved.StringFixed(2),
		AmountRaised:   raisedDec.StringFixed(2),
		PercentFunded:  percent.StringFixed(2),
	}, nil
}

// --- Contributions ---

func (s *fundingService) Contribute(ctx context.Context, contributorID string, req ContributeRequest) (ContributeResult, error) {
	contributor, err := uuid.Parse(contributorID)
	if err != nil {
		return ContributeResult{}, fmt.Errorf("invalid contributor id: %w", err)
	}

	requestID, err := uuid.Parse(req.FundingRequestID)
	if err != nil {
		return ContributeResult{}, fmt.Errorf("invalid funding request id: %w", err)
	}

	request, err := s.fundingRepo.FindRequestByID(ctx, requestID)
	if err != nil {
		return ContributeResult{}, fmt.Errorf("funding request not found: %w", err)
	}
	if request.Status == model.ProposalFunded {
		return ContributeResult{}, fmt.Errorf("funding request is already fully funded")
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return ContributeResult{}, fmt.Errorf("invalid amount: %w", err)
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return ContributeResult{}, fmt.Errorf("amount must be positive")
	}

	profile, err := s.userRepo.GetByID(ctx, contributor)
	if err != nil {
		return ContributeResult{}, fmt.Errorf("contributor profile not found: %w", err)
	}

	title := "Infrastructure Contribution"
	if request.Proposal != nil {
		title = request.Proposal.Title
	}

	init, err := s.paymentService.InitializePayment(ctx, InitializePaymentRequest{
		Amount:        amount,
		Currency:      "NGN",
		CustomerEmail: profile.Email,
		CustomerName:  profile.FullName(),
		Title:         "KogiExportHub Contribution",
		Description:   "Contribution to " + title,
	})
	if err != nil {
		return ContributeResult{}, fmt.Errorf("payment initialization failed: %w", err)
	}

	contribution := model.FundingContribution{
		FundingRequestID:     request.ID,
		ContributorID:        contributor,
		Amount:               amount,
		TransactionReference: init.TxRef,
		Status:               model.ContributionPending,
	}

	if err := s.fundingRepo.CreateContribution(ctx, &contribution); err != nil {
		return ContributeResult{}, fmt.Errorf("failed to record contribution: %w", err)
	}

	return ContributeResult{
		ContributionID: contribution.ID.String(),
		PaymentLink:    init.PaymentLink,
		TxRef:          init.TxRef,
	}, nil
}

func (s *fundingService) CompleteContributionByReference(ctx context.Context, txRef string) (*model.FundingContribution, error) {
	contribution, err := s.fundingRepo.FindContributionByReference(ctx, txRef)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("no contribution found for reference %s", txRef)
		}
		return nil, fmt.Errorf("failed to look up contribution: %w", err)
	}

	if contribution.Status == model.ContributionCompleted {
		return contribution, nil
	}

	contribution.Status = model.ContributionCompleted
	if err := s.fundingRepo.UpdateContribution(ctx, contribution); err != nil {
		return nil, fmt.Errorf("failed to complete contribution: %w", err)
	}

	// Flip the request to Funded once the raised total covers the target.
	request, err := s.fundingRepo.FindRequestByID(ctx, contribution.FundingRequestID)
	if err != nil {
		return contribution, nil
	}
	if request.AmountApproved != nil && request.Status != model.ProposalFunded {
		raised, err := s.fundingRepo.SumCompletedContributions(ctx, request.ID)
		if err == nil && decimal.NewFromFloat(raised).GreaterThanOrEqual(*request.AmountApproved) {
			request.Status = model.ProposalFunded
			_ = s.fundingRepo.UpdateRequest(ctx, request)
		}
	}

	return contribution, nil
}

// --- Disbursement ---

func (s *fundingService) Disburse(ctx context.Context, requestID, adminID string, req DisburseRequest) (*model.FundingRequest, error) {
	id, err := uuid.Parse(requestID)
	if err != nil {
		return nil, fmt.Errorf("invalid funding request id: %w", err)
	}

	request, err := s.fundingRepo.FindRequestByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("funding request not found: %w", err)
	}
	if request.Status != model.ProposalFunded {
		return nil, fmt.Errorf("only fully funded requests can be disbursed")
	}
	if request.DisbursementStatus == model.DisbursementCompleted || request.DisbursementStatus == model.DisbursementPending {
		return nil, fmt.Errorf("disbursement already %s", request.DisbursementStatus)
	}

	account, err := s.paymentService.ValidateAccount(ctx, req.AccountNumber, req.BankCode)
	if err != nil {
		return nil, fmt.Errorf("account validation failed: %w", err)
	}

	amount := request.AmountRequested
	if request.AmountApproved != nil {
		amount = *request.AmountApproved
	}

	narration := "Infrastructure funding disbursement"
	if request.Proposal != nil {
		narration = "Disbursement: " + request.Proposal.Title
	}

	transfer, err := s.paymentService.InitiateTransfer(ctx, TransferRequest{
		Amount:           amount,
		RecipientAccount: req.AccountNumber,
		BankCode:         req.BankCode,
		RecipientName:    account.AccountName,
		Narration:        narration,
	})
	if err != nil {
		return nil, fmt.Errorf("transfer initiation failed: %w", err)
	}

	now := s.now()
	request.RecipientAccountNumber = req.AccountNumber
	request.RecipientBankCode = req.BankCode
	request.RecipientAccountName = account.AccountName
	request.DisbursementTransferID = transfer.TransferID
	request.DisbursementReference = transfer.Reference
	request.DisbursementStatus = model.DisbursementPending
	request.DisbursementDate = &now

	if err := s.fundingRepo.UpdateRequest(ctx, request); err != nil {
		return nil, fmt.Errorf("failed to record disbursement: %w", err)
	}

	s.writeAuditLog(ctx, adminID, model.ActionDisburseFunding, request.ID.String(), narration, map[string]string{
		"amount":      amount.StringFixed(2),
		"transfer_id": transfer.TransferID,
		"reference":   transfer.Reference,
	})

	return request, nil
}

func (s *fundingService) RefreshDisbursement(ctx context.Context, requestID string) (*model.FundingRequest, error) {
	id, err := uuid.Parse(requestID)
	if err != nil {
		return nil, fmt.Errorf("invalid funding request id: %w", err)
	}

	request, err := s.fundingRepo.FindRequestByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("funding request not found: %w", err)
	}
	if request.DisbursementTransferID == "" {
		return nil, fmt.Errorf("no disbursement initiated for this request")
	}

	transfer, err := s.paymentService.VerifyTransfer(ctx, request.DisbursementTransferID)
	if err != nil {
		return nil, fmt.Errorf("transfer verification failed: %w", err)
	}

	switch transfer.Status {
	case "SUCCESSFUL":
		request.DisbursementStatus = model.DisbursementCompleted
	case "FAILED":
		request.DisbursementStatus = model.DisbursementFailed
	default:
		request.DisbursementStatus = model.DisbursementPending
	}

	if err := s.fundingRepo.UpdateRequest(ctx, request); err != nil {
		return nil, fmt.Errorf("failed to update disbursement status: %w", err)
	}

	return request, nil
}

func (s *fundingService) writeAuditLog(ctx context.Context, userID, action, entityID, entityName string, details interface{}) {
	detailsJSON, _ := json.Marshal(details)

	entry := model.AuditLog{
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    string(detailsJSON),
	}
	if userID != "" {
		if parsed, err := uuid.Parse(userID); err == nil {
			entry.UserID = &parsed
		}
	}
	_ = s.auditRepo.Log(ctx, &entry)
}
