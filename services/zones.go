package services

// Zone groups deliveries sharing a locality label. Members are indices into
// the caller's delivery slice. Zones are ephemeral planning artifacts, never
// persisted.
type Zone struct {
	Label   string
	Members []int
}

// UnzonedLabel is the fallback bucket for deliveries without a locality.
const UnzonedLabel = "unzoned"

// PartitionZones groups items by label, preserving first-seen label order
// and input order within each zone. Empty labels collect in the fallback
// bucket.
func PartitionZones(labels []string) []Zone {
	var zones []Zone
	byLabel := make(map[string]int)

	for i, label := range labels {
		if label == "" {
			label = UnzonedLabel
		}
		zi, ok := byLabel[label]
		if !ok {
			zi = len(zones)
			byLabel[label] = zi
			zones = append(zones, Zone{Label: label})
		}
		zones[zi].Members = append(zones[zi].Members, i)
	}
	return zones
}

// RebalanceZones merges undersized zones while more than maxCount zones
// exist. Each pass finds the largest zone below minSize, merges any other
// undersized zone into it, and drops the emptied zone. Terminates because
// every merge removes one zone; if no mergeable pair remains, more than
// maxCount zones may survive (a documented limitation, not an error).
// The input slice is not modified.
func RebalanceZones(zones []Zone, minSize, maxCount int) []Zone {
	out := make([]Zone, len(zones))
	for i, z := range zones {
		members := make([]int, len(z.Members))
		copy(members, z.Members)
		out[i] = Zone{Label: z.Label, Members: members}
	}

	for len(out) > maxCount {
		target := -1 // largest zone below minSize
		for i, z := range out {
			if len(z.Members) >= minSize {
				continue
			}
			if target == -1 || len(z.Members) > len(out[target].Members) {
				target = i
			}
		}
		if target == -1 {
			break
		}

		donor := -1 // any other undersized zone
		for i, z := range out {
			if i != target && len(z.Members) < minSize {
				donor = i
				break
			}
		}
		if donor == -1 {
			break
		}

		out[target].Members = append(out[target].Members, out[donor].Members...)
		out = append(out[:donor], out[donor+1:]...)
	}
	return out
}
