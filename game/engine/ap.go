package engine

// Inventory holds the player's stones. Counts never leave [0, capacity].
type Inventory struct {
	Counts   map[StoneType]int `json:"counts"`
	Capacity map[StoneType]int `json:"capacity"`
}

// NewInventory creates an empty inventory with the same capacity for every type.
func NewInventory(capacity int) Inventory {
	inv := Inventory{
		Counts:   make(map[StoneType]int, len(StoneTypes)),
		Capacity: make(map[StoneType]int, len(StoneTypes)),
	}
	for _, t := range StoneTypes {
		inv.Counts[t] = 0
		inv.Capacity[t] = capacity
	}
	return inv
}

// Count returns how many stones of type t are held.
func (inv Inventory) Count(t StoneType) int {
	return inv.Counts[t]
}

// Total returns the number of stones held across all types.
func (inv Inventory) Total() int {
	n := 0
	for _, t := range StoneTypes {
		n += inv.Counts[t]
	}
	return n
}

// Add gives up to n stones of type t and returns how many fit.
func (inv Inventory) Add(t StoneType, n int) int {
	room := inv.Capacity[t] - inv.Counts[t]
	if n > room {
		n = room
	}
	if n <= 0 {
		return 0
	}
	inv.Counts[t] += n
	return n
}

// Take removes one stone of type t. It returns false when none are held.
func (inv Inventory) Take(t StoneType) bool {
	if inv.Counts[t] <= 0 {
		return false
	}
	inv.Counts[t]--
	return true
}

// APPool tracks the AP spent this turn.
type APPool struct {
	RegularAP  int `json:"regular_ap"`
	VoidAPUsed int `json:"void_ap_used"`
}

// Available returns the AP breakdown given the number of Void stones held.
func (p APPool) Available(voidStones int) APInfo {
	voidAP := max(0, voidStones-p.VoidAPUsed)
	return APInfo{
		RegularAP: p.RegularAP,
		VoidAP:    voidAP,
		TotalAP:   p.RegularAP + voidAP,
	}
}

// Spend draws cost from regular AP first and the rest from void AP. Nothing is
// spent when the total is short.
func (p *APPool) Spend(cost, voidStones int) bool {
	if cost < 0 {
		return false
	}
	if cost > p.Available(voidStones).TotalAP {
		return false
	}
	fromRegular := min(cost, p.RegularAP)
	p.RegularAP -= fromRegular
	p.VoidAPUsed += cost - fromRegular
	return true
}

// Reset restores regular AP and clears void usage at the start of a turn.
func (p *APPool) Reset(apPerTurn int) {
	p.RegularAP = apPerTurn
	p.VoidAPUsed = 0
}
