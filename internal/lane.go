package internal

import (
	"math/bits"
	"strconv"
	"strings"
)

// Lanes is a set of priorities packed in a bitmask.
// A lower bit is a more urgent lane.
type Lanes uint32

// Lane is a Lanes value with exactly one bit set (or none).
type Lane = Lanes

const (
	NoLanes Lanes = 0
	NoLane  Lane  = 0

	SyncLane       Lane = 1 << 0
	InputLane      Lane = 1 << 1
	DefaultLane    Lane = 1 << 2
	TransitionLane Lane = 1 << 3
	IdleLane       Lane = 1 << 4

	AllLanes Lanes = SyncLane | InputLane | DefaultLane | TransitionLane | IdleLane
)

var laneNames = [...]string{"sync", "input", "default", "transition", "idle"}

// Includes reports whether l and other share at least one lane.
func (l Lanes) Includes(other Lanes) bool {
	return l&other != NoLanes
}

// Contains reports whether every lane of subset is in l.
// NoLane is contained in every set.
func (l Lanes) Contains(subset Lanes) bool {
	return l&subset == subset
}

func (l Lanes) Merge(other Lanes) Lanes {
	return l | other
}

func (l Lanes) Remove(other Lanes) Lanes {
	return l &^ other
}

// Highest returns the most urgent lane of the set.
func (l Lanes) Highest() Lane {
	return l & -l
}

func (l Lanes) Empty() bool {
	return l == NoLanes
}

// HigherPriority reports whether a is more urgent than b.
func HigherPriority(a, b Lane) bool {
	return a != NoLane && (b == NoLane || a < b)
}

func (l Lanes) String() string {
	if l == NoLanes {
		return "none"
	}

	names := make([]string, 0, bits.OnesCount32(uint32(l)))
	for rest := l; rest != NoLanes; rest &= rest - 1 {
		i := bits.TrailingZeros32(uint32(rest))
		if i < len(laneNames) {
			names = append(names, laneNames[i])
		} else {
			names = append(names, "lane"+strconv.Itoa(i))
		}
	}

	return strings.Join(names, "|")
}
