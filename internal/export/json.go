package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/ginjaninja78/tariff-reconciler/internal/report"
	"github.com/ginjaninja78/tariff-reconciler/internal/types"
)

// WriteJSON writes the result document. A category other than all narrows
// fullReport; counters and details are left intact.
func WriteJSON(w io.Writer, result *report.Result, category types.Category) error {
	view := *result
	view.Rows = result.Filter(category)

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(&view); err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	return nil
}
