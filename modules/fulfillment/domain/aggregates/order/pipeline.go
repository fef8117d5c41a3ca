package order

import "time"

type StepKey string

const (
	StepReceived      StepKey = "received"
	StepPayment       StepKey = "payment"
	StepManufacturing StepKey = "manufacturing"
	StepShipping      StepKey = "shipping"
	StepDelivered     StepKey = "delivered"
)

type Step struct {
	Key       StepKey    `json:"key"`
	Label     string     `json:"label"`
	Timestamp *time.Time `json:"timestamp"`
	Completed bool       `json:"completed"`
	Current   bool       `json:"current"`
}

// Pipeline is a display model. Progress feeds a progress bar only and is
// never stored.
type Pipeline struct {
	Steps    []Step  `json:"steps"`
	Progress float64 `json:"progress"`
}

// Visible is false for drafts, which have no pipeline.
func (p Pipeline) Visible() bool {
	return len(p.Steps) > 0
}

// DerivePipeline maps the order milestones onto the fixed step sequence.
// At most one step is current: the first unset step whose preceding gate
// holds.
func DerivePipeline(o Order) Pipeline {
	if o.Status == StatusDraft {
		return Pipeline{}
	}

	set := func(t *time.Time) bool { return t != nil }
	stages := []struct {
		key   StepKey
		label string
		at    *time.Time
		gate  bool
	}{
		{StepReceived, "Received", o.ReceivedAt, o.Status == StatusSent && !set(o.PaymentConfirmedAt)},
		{StepPayment, "Payment", o.PaymentConfirmedAt, set(o.ReceivedAt)},
		{StepManufacturing, "Manufacturing", o.ManufacturingDoneAt, set(o.PaymentConfirmedAt)},
		{StepShipping, "Shipping", o.ShippingDoneAt, set(o.ManufacturingDoneAt)},
		{StepDelivered, "Delivered", o.DeliveredAt, set(o.ShippingDoneAt)},
	}

	steps := make([]Step, len(stages))
	completed := 0
	var currentFound bool
	for i, st := range stages {
		steps[i] = Step{
			Key:       st.key,
			Label:     st.label,
			Timestamp: st.at,
			Completed: set(st.at),
		}
		if steps[i].Completed {
			completed++
			continue
		}
		if !currentFound && st.gate {
			steps[i].Current = true
			currentFound = true
		}
	}

	progress := float64(completed) / float64(len(steps)-1)
	if progress > 1 {
		progress = 1
	}
	return Pipeline{Steps: steps, Progress: progress}
}
