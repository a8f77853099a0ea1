// Package definition loads state machine layouts from YAML so tools can author
// states and callbacks without code. Callback behavior is referenced by name
// and bound through an ActionRegistry at build time.
//
//	name: Player
//	dispatch: [enter, update, exit]
//	exit_on_teardown: true
//	states:
//	  - name: Idle
//	    callbacks:
//	      - name: play idle
//	        conditions: [enter]
//	        actions: [anim.idle]
//	  - name: Run
//	globals:
//	  - name: footsteps
//	    conditions: [update]
//	    ignore: [Idle]
//	    actions: [audio.step]
//
// Usage:
//
//	actions := definition.NewActionRegistry()
//	actions.Register("anim.idle", playIdle)
//	actions.Register("audio.step", playStep)
//
//	def, err := definition.LoadFile(ctx, "player.yaml")
//	m, err := definition.Build(def, actions,
//	    statemachine.WithConfig(cfg),
//	    statemachine.WithLogger(log),
//	)
package definition
