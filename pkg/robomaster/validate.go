package robomaster

import "slices"

// checkRange requires min <= v <= max.
func checkRange(param string, v, min, max float64) error {
	if v < min || v > max {
		return &RangeError{Param: param, Value: v, Min: min, Max: max}
	}
	return nil
}

// checkSpeed requires 0 < v <= max.
func checkSpeed(param string, v, max float64) error {
	if v <= 0 || v > max {
		return &RangeError{Param: param, Value: v, Min: 0, Max: max, MinOpen: true}
	}
	return nil
}

func checkChoice(param, v string, allowed []string) error {
	if !slices.Contains(allowed, v) {
		return &ChoiceError{Param: param, Value: v, Allowed: allowed}
	}
	return nil
}

func checkFreq(param string, f int) error {
	if !slices.Contains(PushFrequencies, f) {
		return &RangeError{Param: param, Value: float64(f), Min: 1, Max: 50}
	}
	return nil
}

// firstErr returns the first non-nil error.
func firstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
