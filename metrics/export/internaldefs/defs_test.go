package internaldefs

import (
	"strings"
	"testing"

	goATM "github.com/MrEthical07/goATM"
)

func TestEveryCounterInExactlyOneFamily(t *testing.T) {
	seen := map[goATM.MetricID]string{}
	names := map[string]bool{}

	for _, fam := range CounterFamilies {
		if !strings.HasPrefix(fam.Name, "atm_") || !strings.HasSuffix(fam.Name, "_total") {
			t.Fatalf("unexpected family name %q", fam.Name)
		}
		if !strings.HasPrefix(fam.OTelName, "atm.") {
			t.Fatalf("unexpected otel name %q", fam.OTelName)
		}
		if names[fam.Name] {
			t.Fatalf("duplicate family %q", fam.Name)
		}
		names[fam.Name] = true

		labelSets := map[string]bool{}
		for _, s := range fam.Series {
			if prev, ok := seen[s.ID]; ok {
				t.Fatalf("metric %d in both %s and %s", s.ID, prev, fam.Name)
			}
			seen[s.ID] = fam.Name

			var key strings.Builder
			for _, l := range s.Labels {
				key.WriteString(l.Key + "=" + l.Value + ",")
			}
			if labelSets[key.String()] {
				t.Fatalf("%s: duplicate label set %q", fam.Name, key.String())
			}
			labelSets[key.String()] = true
		}
	}

	for id := goATM.MetricCardInserted; id < goATM.MetricPINVerifyLatency; id++ {
		if _, ok := seen[id]; !ok {
			t.Fatalf("metric %d is not exported", id)
		}
	}
	if _, ok := seen[goATM.MetricPINVerifyLatency]; ok {
		t.Fatal("histogram must not be exported as a counter")
	}
}

func TestStateValueIsOneHot(t *testing.T) {
	for _, current := range States {
		var total int64
		for _, s := range States {
			total += StateValue(s, current)
		}
		if total != 1 || StateValue(current, current) != 1 {
			t.Fatalf("expected one-hot gauge for %s", current)
		}
	}
}

func TestBucketHelpers(t *testing.T) {
	if len(HistogramBounds) != 8 {
		t.Fatal("expected eight bucket bounds")
	}

	n := NormalizeBuckets([]uint64{1, 2, 3})
	if n != [8]uint64{1, 2, 3, 0, 0, 0, 0, 0} {
		t.Fatalf("unexpected normalized buckets %v", n)
	}
	c := CumulativeBuckets([8]uint64{1, 1, 0, 2, 0, 0, 0, 1})
	if c != [8]uint64{1, 2, 2, 4, 4, 4, 4, 5} {
		t.Fatalf("unexpected cumulative buckets %v", c)
	}
}
