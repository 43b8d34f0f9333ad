// Package authz is the single capability check used by every entry point.
package authz

import (
	"context"

	"github.com/ariefcatur/go-realtime-storefront/internal/orders"
)

type Action string

const (
	ActionOrderRead            Action = "order:read"
	ActionOrdersList           Action = "orders:list"
	ActionOrderUpdateStatus    Action = Action(orders.ActionUpdateStatus)
	ActionOrderConfirmDelivery Action = Action(orders.ActionConfirmDelivery)
	ActionOrderCancel          Action = Action(orders.ActionCancel)
	ActionNotificationsRead    Action = "notifications:read"
	ActionNotificationsAck     Action = "notifications:ack"
	ActionEventsSubscribe      Action = "events:subscribe"
)

// Resource is what an action targets. OwnerID is the customer who owns it,
// empty for organization-wide resources.
type Resource struct {
	OrganizationID string
	OwnerID        string
}

// MembershipSource is the external staff directory.
type MembershipSource interface {
	IsOrganizationMember(ctx context.Context, actorID, organizationID string) (bool, error)
}

type rule struct {
	owner  bool // the owning customer is allowed
	member bool // organization staff are allowed
}

var rules = map[Action]rule{
	ActionOrderRead:            {owner: true, member: true},
	ActionOrdersList:           {member: true},
	ActionOrderUpdateStatus:    {member: true},
	ActionOrderConfirmDelivery: {owner: true},
	ActionOrderCancel:          {owner: true, member: true},
	ActionNotificationsRead:    {member: true},
	ActionNotificationsAck:     {member: true},
	ActionEventsSubscribe:      {member: true},
}

type Checker struct {
	members MembershipSource
}

func NewChecker(members MembershipSource) *Checker {
	return &Checker{members: members}
}

// Allow decides whether actorID may perform action on res. Unknown actions
// and anonymous actors are denied.
func (c *Checker) Allow(ctx context.Context, actorID string, res Resource, action Action) (bool, error) {
	r, ok := rules[action]
	if !ok || actorID == "" {
		return false, nil
	}
	if r.owner && res.OwnerID != "" && actorID == res.OwnerID {
		return true, nil
	}
	if !r.member || res.OrganizationID == "" {
		return false, nil
	}
	return c.members.IsOrganizationMember(ctx, actorID, res.OrganizationID)
}

// Can implements orders.Authorizer.
func (c *Checker) Can(ctx context.Context, actor orders.Actor, o orders.Order, action orders.Action) (bool, error) {
	return c.Allow(ctx, actor.ID, Resource{OrganizationID: o.OrganizationID, OwnerID: o.UserID}, Action(action))
}
