package scoring

import (
	"math"
	"time"

	"pulse_social/model"
)

// 关系强度的加权构成
const (
	durationWeight   = 0.2
	frequencyWeight  = 0.3
	recencyWeight    = 0.25
	engagementWeight = 0.25

	closeFriendBonus = 0.2
	mutualBonus      = 0.15
	notifyAllBonus   = 0.1
)

// EdgeStrength 单条关注边的关系强度，[0,1]
// 时长、频率、新近度、互动分四个因子加权，再叠加固定加成
func EdgeStrength(edge *model.FollowEdge, mutual bool, now time.Time) float64 {
	if edge == nil || !edge.Active {
		return 0
	}

	days := now.Sub(edge.CreatedAt).Hours() / 24.0
	if days < 0 {
		days = 0
	}
	durationFactor := math.Log(days+1) / 10.0

	perDay := float64(edge.InteractionCount) / math.Max(1.0, days)
	frequencyFactor := math.Min(1.0, perDay/10.0)

	recencyFactor := RecencyDecay(now.Sub(edge.LastInteractionAt).Hours())
	engagementFactor := edge.EngagementScore / maxEngagementScore

	bonus := 0.0
	if edge.CloseFriend {
		bonus += closeFriendBonus
	}
	if mutual {
		bonus += mutualBonus
	}
	if edge.NotificationLevel == model.NotifyAll {
		bonus += notifyAllBonus
	}

	strength := durationFactor*durationWeight +
		frequencyFactor*frequencyWeight +
		recencyFactor*recencyWeight +
		engagementFactor*engagementWeight +
		bonus

	return clamp(strength, 0, 1)
}

// PairStrength 关系对的强度：取两个方向中较强的一条边
func PairStrength(rel *model.Relationship, forward, backward *model.FollowEdge, now time.Time) float64 {
	if rel.IsBlocked() {
		return 0
	}
	mutual := rel.IsMutual()
	return math.Max(EdgeStrength(forward, mutual, now), EdgeStrength(backward, mutual, now))
}
