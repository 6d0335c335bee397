package similarity

// Stripe returns the ids at positions i with i mod numWorkers == offset.
// Over all offsets in [0, numWorkers) the stripes partition ids.
func Stripe(ids []int32, numWorkers, offset int) []int32 {
	if numWorkers < 1 || offset < 0 || offset >= numWorkers {
		return nil
	}
	out := make([]int32, 0, (len(ids)+numWorkers-1-offset)/numWorkers)
	for i := offset; i < len(ids); i += numWorkers {
		out = append(out, ids[i])
	}
	return out
}
