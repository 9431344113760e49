package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordRecommendation(t *testing.T) {
	before := testutil.ToFloat64(RecommendationsTotal.WithLabelValues("ok"))
	RecordRecommendation("")
	if got := testutil.ToFloat64(RecommendationsTotal.WithLabelValues("ok")); got != before+1 {
		t.Errorf("ok counter = %v, want %v", got, before+1)
	}

	before = testutil.ToFloat64(RecommendationsTotal.WithLabelValues("UserNotFound"))
	RecordRecommendation("UserNotFound")
	if got := testutil.ToFloat64(RecommendationsTotal.WithLabelValues("UserNotFound")); got != before+1 {
		t.Errorf("UserNotFound counter = %v, want %v", got, before+1)
	}
}

func TestRecordCatalogLoad(t *testing.T) {
	RecordCatalogLoad(10*time.Millisecond, 42, 300)
	if got := testutil.ToFloat64(CatalogKeptItems); got != 42 {
		t.Errorf("kept items = %v, want 42", got)
	}
	if got := testutil.ToFloat64(CatalogVocabularySize); got != 300 {
		t.Errorf("vocabulary = %v, want 300", got)
	}
}
