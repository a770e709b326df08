package laptime

import (
	"math"
	"testing"
)

func TestConsistency(t *testing.T) {
	t.Run("Too few laps", func(t *testing.T) {
		if _, ok := Consistency([]float64{50, 51}, DefaultConsistencyOptions); ok {
			t.Fail()
		}
	})

	t.Run("Laps outside range are ignored", func(t *testing.T) {
		if _, ok := Consistency([]float64{50, 51, 0, -1, 400}, DefaultConsistencyOptions); ok {
			t.Fail()
		}
	})

	t.Run("Even spread", func(t *testing.T) {
		stdDev, ok := Consistency([]float64{50, 51, 52}, DefaultConsistencyOptions)

		if !ok {
			t.Fatal("Expected a consistency value")
		}

		if expected := math.Sqrt(2.0 / 3.0); math.Abs(stdDev-expected) > 1e-9 {
			t.Logf("Expected %f, got %f", expected, stdDev)
			t.Fail()
		}
	})

	t.Run("Traffic laps are excluded", func(t *testing.T) {
		stdDev, ok := Consistency([]float64{50, 50, 50, 50, 58}, DefaultConsistencyOptions)

		if !ok {
			t.Fatal("Expected a consistency value")
		}

		if stdDev != 0 {
			t.Logf("Expected 0, got %f", stdDev)
			t.Fail()
		}
	})

	t.Run("Even number of laps uses the middle pair", func(t *testing.T) {
		stdDev, ok := Consistency([]float64{50, 51, 51, 60}, DefaultConsistencyOptions)

		if !ok {
			t.Fatal("Expected a consistency value")
		}

		if expected := math.Sqrt(2.0 / 9.0); math.Abs(stdDev-expected) > 1e-9 {
			t.Logf("Expected %f, got %f", expected, stdDev)
			t.Fail()
		}
	})
}

func TestRateConsistency(t *testing.T) {
	ratings := map[float64]Rating{
		0.1: RatingExcellent,
		0.5: RatingGood,
		0.8: RatingGood,
		1.0: RatingFair,
		1.4: RatingTrafficAffected,
		3.0: RatingTrafficAffected,
	}

	for stdDev, expected := range ratings {
		if rating := RateConsistency(stdDev); rating != expected {
			t.Errorf("RateConsistency(%v): expected %s, got %s", stdDev, expected, rating)
		}
	}
}
