package checkout

import "capriccio/internal/model"

// Next advances the checkout flow one step. Leaving the cart requires at
// least one item; the form step only advances through Submit.
func Next(stage model.CheckoutStage, itemCount int) (model.CheckoutStage, error) {
	switch stage {
	case model.StageCart, "":
		if itemCount == 0 {
			return stage, model.ErrEmptyCart
		}
		return model.StageSummary, nil
	case model.StageSummary:
		if itemCount == 0 {
			return model.StageCart, model.ErrEmptyCart
		}
		return model.StageForm, nil
	default:
		return stage, model.ErrInvalidStage
	}
}

// Back moves the flow one step backwards without touching the cart.
func Back(stage model.CheckoutStage) (model.CheckoutStage, error) {
	switch stage {
	case model.StageSummary:
		return model.StageCart, nil
	case model.StageForm:
		return model.StageSummary, nil
	default:
		return stage, model.ErrInvalidStage
	}
}
