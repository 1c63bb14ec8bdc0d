package hrtftable

// Checkpoint files are recognized by extension.
const checkpointExt = ".json"

// Synthetic lattice used by the renderer's tests.
const (
	testDataStep = 15 // Degrees between lattice samples
	testDataBand = 8  // Bands per channel
)
