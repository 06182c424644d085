package driver

import (
	"encoding/json"
	"fmt"

	"bridgegen/internal/diag"
	"bridgegen/internal/observ"
	"bridgegen/internal/source"
)

type timingPayload struct {
	Kind string `json:"kind"`
	observ.Report
}

// appendTimingDiagnostic records the timer report as an OBS6001 info
// diagnostic whose note carries the JSON form.
func appendTimingDiagnostic(bag *diag.Bag, payload timingPayload) {
	if bag == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	entry := diag.Diagnostic{
		Severity: diag.SevInfo,
		Code:     diag.ObsTimings,
		Message:  fmt.Sprintf("timings (%s): total %.2f ms", payload.Kind, payload.TotalMS),
		Primary:  source.Span{},
		Notes:    []diag.Note{{Span: source.Span{}, Msg: string(data)}},
	}
	if bag.Add(entry) {
		return
	}
	overflow := diag.NewBag(1)
	overflow.Add(entry)
	bag.Merge(overflow)
}
