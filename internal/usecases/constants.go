package usecases

// Virtual size model for settlement transactions. The external signing
// service owns real coin selection; these figures only have to be close
// enough for fee quoting and amortization.
const (
	// TxBaseSizeVb covers version, locktime, one taproot input and the
	// runestone marker output.
	TxBaseSizeVb int64 = 110
	// TxOutputSizeVb is the incremental cost per transfer output.
	TxOutputSizeVb int64 = 43
)

// EstimateTxSizeVb returns the estimated virtual size of a settlement
// transaction carrying the given number of transfer outputs.
func EstimateTxSizeVb(numOutputs int) int64 {
	if numOutputs < 1 {
		numOutputs = 1
	}
	return TxBaseSizeVb + TxOutputSizeVb*int64(numOutputs)
}
