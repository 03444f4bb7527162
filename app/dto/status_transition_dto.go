package dto

// AllowedTransitionsRequest asks which statuses an entity may move to next
type AllowedTransitionsRequest struct {
	Kind string `query:"kind" validate:"required,oneof=lead property"`
	From string `query:"from" validate:"required"`
}

// AllowedTransitionsResponse lists the legal next statuses, sorted
type AllowedTransitionsResponse struct {
	Kind    string   `json:"kind"`
	From    string   `json:"from"`
	Allowed []string `json:"allowed"`
}

// ValidateTransitionRequest asks whether a single move is legal
type ValidateTransitionRequest struct {
	Kind string `json:"kind" validate:"required"`
	From string `json:"from" validate:"required"`
	To   string `json:"to" validate:"required"`
}

// TransitionDecisionResponse mirrors the validator's decision
type TransitionDecisionResponse struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}
