package engine

import "errors"

// Rule failures returned by player actions. Each failure also leaves a
// human-readable message on the game state.
var (
	ErrGameOver              = errors.New("game is over")
	ErrInvalidTarget         = errors.New("invalid target hex")
	ErrNotAdjacent           = errors.New("target hex is not adjacent to the player")
	ErrOccupied              = errors.New("target hex is occupied")
	ErrEmptyHex              = errors.New("target hex has no stone")
	ErrImpassable            = errors.New("hex is impassable")
	ErrInsufficientAP        = errors.New("not enough action points")
	ErrNoStone               = errors.New("no stones of that type in inventory")
	ErrNeedMoreStones        = errors.New("not enough stones to sacrifice")
	ErrFireRequiresSacrifice = errors.New("fire hexes can only be entered by sacrificing stones")
	ErrNotFire               = errors.New("target hex does not hold a fire stone")
	ErrUnknownStone          = errors.New("unknown stone type")
)
