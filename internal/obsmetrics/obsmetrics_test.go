package obsmetrics_test

import (
	"testing"

	"github.com/emitcore/ghgcore/internal/obsmetrics"
)

func TestCollectorRecordsClassification(t *testing.T) {
	c := obsmetrics.New()

	c.RecordColumnClassification("fuel")
	c.RecordColumnClassification("fuel")
	c.RowsIngested.Inc()
	c.RowsDropped.Inc()

	families, err := c.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(families) == 0 {
		t.Fatal("expected at least one metric family")
	}
}
