// Package teams manages site crews and their members.
package teams

import (
	"time"

	"github.com/sitecrew/sitecrew/internal/model"
	"github.com/sitecrew/sitecrew/internal/rbac"
)

// MemberInput describes one crew member of a new team.
type MemberInput struct {
	UserID     string    `json:"userId" validate:"required"`
	Role       rbac.Role `json:"role" validate:"required"`
	HourlyRate float64   `json:"hourlyRate" validate:"gte=0"`
}

// TeamInput is the payload of createTeam.
type TeamInput struct {
	Name        string        `json:"name" validate:"required,max=120"`
	Description string        `json:"description"`
	LeaderID    string        `json:"leaderId"`
	ProjectIDs  []string      `json:"projectIds"`
	Members     []MemberInput `json:"members" validate:"dive"`
}

// memberRow is the team_members representation of a member.
type memberRow struct {
	TeamID string `json:"teamId"`
	model.TeamMember
}

func (in TeamInput) team(leaderID string) model.Team {
	t := model.Team{
		Name:        in.Name,
		Description: in.Description,
		LeaderID:    in.LeaderID,
		ProjectIDs:  in.ProjectIDs,
		IsActive:    true,
	}
	if t.LeaderID == "" {
		t.LeaderID = leaderID
	}
	return t
}

func (in TeamInput) members(teamID string, joined time.Time) []memberRow {
	out := make([]memberRow, 0, len(in.Members))
	for _, m := range in.Members {
		out = append(out, memberRow{
			TeamID: teamID,
			TeamMember: model.TeamMember{
				UserID:     m.UserID,
				Role:       m.Role,
				HourlyRate: m.HourlyRate,
				JoinedAt:   joined,
				IsActive:   true,
			},
		})
	}
	return out
}
