package inventory

import (
	"context"

	"github.com/jhoicas/materiales-api/internal/application/dto"
)

// RegisterMovementFromRequest adapta el request HTTP al caso de uso RegisterMovement.
// receipt puede ser nil; idempotencyKey puede ser vacío.
func (uc *RegisterMovementUseCase) RegisterMovementFromRequest(
	ctx context.Context,
	userID string,
	in dto.RegisterMovementRequest,
	receipt *Receipt,
	idempotencyKey string,
) (*dto.RegisterMovementResponse, error) {
	input := MovementInput{
		UserID:         userID,
		Kind:           in.Kind,
		Notes:          in.Notes,
		Lines:          make([]LineInput, 0, len(in.Items)),
		Receipt:        receipt,
		IdempotencyKey: idempotencyKey,
	}
	for _, it := range in.Items {
		input.Lines = append(input.Lines, LineInput{ProductCode: it.ProductCode, Quantity: it.Quantity})
	}
	res, err := uc.RegisterMovement(ctx, input)
	if err != nil {
		return nil, err
	}
	return &dto.RegisterMovementResponse{
		Success:    true,
		MovementID: res.MovementID,
		ReceiptURL: res.ReceiptURL,
	}, nil
}
