package diskann

import "sort"

// RobustPrune selects up to R neighbors for p out of cands, keeping
// p's graph alpha-diverse: a candidate v is accepted only if, for
// every already-accepted u, alpha*d(v,u) > d(p,v) — otherwise u
// already covers v's direction well enough that v would just add a
// near-duplicate edge. cands is only looked at through its first
// maxOcclusion closest entries. If saturateGraph is set and fewer
// than R candidates survive diversification, the closest rejected
// ones are appended until R is reached or candidates run out.
func RobustPrune[T Number](store *VectorStore[T], distFn func(a, b []T) float32, p uint32, cands []Candidate, alpha float64, R, maxOcclusion int, saturateGraph bool) []uint32 {
	filtered := dedupeExcludingSelf(cands, p)
	sort.Slice(filtered, func(i, j int) bool { return filtered[i].Dist < filtered[j].Dist })
	if maxOcclusion > 0 && len(filtered) > maxOcclusion {
		filtered = filtered[:maxOcclusion]
	}

	out := make([]uint32, 0, R)
	rejected := make([]uint32, 0)

	for _, v := range filtered {
		if len(out) == R {
			break
		}
		vv := store.Read(v.Slot)
		occluded := false
		for _, u := range out {
			uv := store.Read(u)
			d := distFn(vv, uv)
			if alpha*float64(d) <= float64(v.Dist) {
				occluded = true
				break
			}
		}
		if occluded {
			rejected = append(rejected, v.Slot)
		} else {
			out = append(out, v.Slot)
		}
	}

	if saturateGraph {
		for _, slot := range rejected {
			if len(out) == R {
				break
			}
			out = append(out, slot)
		}
	}

	return out
}

func dedupeExcludingSelf(cands []Candidate, self uint32) []Candidate {
	seen := make(map[uint32]bool, len(cands))
	out := make([]Candidate, 0, len(cands))
	for _, c := range cands {
		if c.Slot == self || seen[c.Slot] {
			continue
		}
		seen[c.Slot] = true
		out = append(out, c)
	}
	return out
}
