// Package engine provides the core rules of the hex stone puzzle game.
//
// The engine package implements the game mechanics including:
//   - The hex grid store with reveal state and player position
//   - Water mimicry through chains of connected water stones
//   - Movement cost with wind-zone transitions and AP accounting
//   - Stone interactions such as fire destruction and chain reactions
//   - Mega-tiles with shrines that award stones
//   - Configuration loading and validation
//
// Core Types:
//
// The Engine interface defines the main contract for game operations,
// implemented by GameEngine. GameState holds everything that is persisted,
// while GameConfig describes a level loaded from JSON files.
//
// Usage:
//
//	gameEngine, err := engine.NewEngine(engine.DefaultConfig())
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	if _, err := gameEngine.PlaceFromInventory(hexmath.Coord{Q: 1, R: 0}, engine.Fire); err != nil {
//		fmt.Println(gameEngine.GetState().Message)
//	}
//	for _, mv := range gameEngine.MovableHexes() {
//		fmt.Println(mv.Q, mv.R, mv.Cost)
//	}
//
// Chain Reactions:
//
// When water and live fire meet, the connected water chain is recorded as a
// pending chain reaction. Nothing changes on the board until ResolveChain is
// called with a time at or after its ReadyAt. Stones bordering the chain are
// destroyed first and the water is consumed afterwards.
package engine
