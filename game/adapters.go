package game

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/companion/components"
	"github.com/pthm-cable/companion/locomotion"
	"github.com/pthm-cable/companion/systems"
)

// agentBody exposes an agent entity to the controller.
type agentBody struct {
	id     uint64
	entity ecs.Entity
	g      *Game
}

var _ locomotion.Body = (*agentBody)(nil)

func (b *agentBody) ID() uint64 { return b.id }

func (b *agentBody) Position() mgl64.Vec3 { return b.g.posMap.Get(b.entity).Vec() }

func (b *agentBody) Velocity() mgl64.Vec3 { return b.g.velMap.Get(b.entity).Vec() }

func (b *agentBody) Yaw() float64 { return b.g.facingMap.Get(b.entity).Yaw }

func (b *agentBody) SetVelocity(v mgl64.Vec3) { b.g.velMap.Get(b.entity).Set(v) }

func (b *agentBody) SetYaw(yaw float64) { b.g.facingMap.Get(b.entity).Yaw = yaw }

func (b *agentBody) SetBodyYaw(yaw float64) { b.g.facingMap.Get(b.entity).BodyYaw = yaw }

func (b *agentBody) TriggerJump() { b.g.bodyMap.Get(b.entity).JumpRequested = true }

func (b *agentBody) IsGrounded() bool { return b.g.bodyMap.Get(b.entity).Grounded }

func (b *agentBody) IsInLiquid() bool { return b.g.bodyMap.Get(b.entity).InLiquid }

// targetView exposes a target actor to the controller.
// Velocity reports measured displacement rather than the commanded velocity,
// since physics friction and collisions change what the actor actually does.
type targetView struct {
	id     uint64
	entity ecs.Entity
	g      *Game
}

var _ locomotion.Target = (*targetView)(nil)

func (t *targetView) actor() *components.Actor { return t.g.actorMap.Get(t.entity) }

func (t *targetView) ID() uint64 { return t.id }

func (t *targetView) Position() mgl64.Vec3 { return t.g.posMap.Get(t.entity).Vec() }

func (t *targetView) Velocity() mgl64.Vec3 { return t.actor().Motion }

func (t *targetView) LookDirection() mgl64.Vec3 { return t.actor().Look }

func (t *targetView) Yaw() float64 { return t.g.facingMap.Get(t.entity).Yaw }

func (t *targetView) IsSprinting() bool { return t.actor().Sprinting }

func (t *targetView) IsAlive() bool { return t.actor().Alive }

func (t *targetView) IsSpectator() bool { return t.actor().Spectator }

// nearbyTargets lists the targets around the agent being ticked, using the spatial grid.
// The host points body at each agent in turn; with no body every target is listed.
type nearbyTargets struct {
	g    *Game
	body *agentBody
	buf  []systems.Neighbor
	out  []locomotion.Target
}

var _ locomotion.TargetSource = (*nearbyTargets)(nil)

// Targets returns targets within the engage radius on the XZ plane. The
// controller re-checks 3D distance, so the horizontal query is a superset.
func (n *nearbyTargets) Targets() []locomotion.Target {
	n.out = n.out[:0]
	if n.body == nil {
		for _, t := range n.g.targets {
			n.out = append(n.out, t)
		}
		return n.out
	}
	n.buf = n.g.spatialGrid.QueryRadiusInto(n.buf[:0], n.body.Position(), n.g.params.Follow.EngageRadius, n.g.posMap)
	for _, nb := range n.buf {
		if t, ok := n.g.byEntity[nb.E]; ok {
			n.out = append(n.out, t)
		}
	}
	return n.out
}
