package scheduler

// YieldSmoothing is the exponential moving average weight given to the most
// recent harvest observation when updating a crop's average yield per tray.
const YieldSmoothing = 0.3

// ObservedYieldPerTray returns the per-tray yield of a single harvest.
// actualTrays must be greater than zero; the orchestrator skips the yield
// update otherwise.
func ObservedYieldPerTray(actualYieldQuantity float64, actualTrays int) float64 {
	return actualYieldQuantity / float64(actualTrays)
}

// UpdateYield folds one harvest observation into a crop's running average
// yield per tray. With no prior estimate the observation is taken as-is;
// otherwise it is blended with the previous average using YieldSmoothing.
// Only future schedules see the new average.
func UpdateYield(previousAverage, actualYieldQuantity float64, actualTrays int) float64 {
	observed := ObservedYieldPerTray(actualYieldQuantity, actualTrays)
	if previousAverage <= 0 {
		return observed
	}
	return YieldSmoothing*observed + (1-YieldSmoothing)*previousAverage
}
