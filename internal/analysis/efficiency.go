package analysis

// EfficiencyFactor calculates pace:HR efficiency for a whole activity.
// EF = (m/min) / HR, typical values range from 1.0 to 2.0.
// Returns 0 when the activity has no usable HR or speed.
func EfficiencyFactor(a TrainingActivity) float64 {
	if !a.HasHeartRate() || a.DurationSeconds <= 0 || a.DistanceMeters <= 0 {
		return 0
	}
	hr := *a.AverageHeartRate
	// Filter noise: must be actually moving with a reasonable HR
	if hr < 80 || hr > 220 {
		return 0
	}
	speed := a.DistanceMeters / a.DurationSeconds
	if speed < 0.5 {
		return 0
	}
	return speed * 60 / hr
}

// MeanEfficiency averages EF over activities with usable HR.
// Returns the mean and how many activities contributed.
func MeanEfficiency(activities []TrainingActivity) (float64, int) {
	var values []float64
	for _, a := range activities {
		if ef := EfficiencyFactor(a); ef > 0 {
			values = append(values, ef)
		}
	}
	return mean(values), len(values)
}
