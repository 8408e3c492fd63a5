// Package seed provisions the demo tenant that ships with a fresh server:
// Mergington High School, its role set, staff accounts, and activity
// catalog. State lives in memory, so every boot starts empty and the seed
// is what makes a dev instance immediately usable.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/homeroom-dev/homeroom/internal/domain/activity"
	"github.com/homeroom-dev/homeroom/internal/domain/authz"
	"github.com/homeroom-dev/homeroom/internal/domain/tenant"
	"github.com/homeroom-dev/homeroom/internal/port/store"
)

// Demo tenant coordinates.
const (
	TenantName   = "Mergington High School"
	TenantDomain = "mergington.local"
)

// Roles returns the demo role set.
func Roles() []authz.Role {
	return []authz.Role{
		authz.NewRole("student", "Student", false,
			"view_activities", "signup_activity"),
		authz.NewRole("teacher", "Teacher", false,
			"view_activities", "signup_activity", "unregister_student", "manage_activities"),
		authz.NewRole("admin", "Administrator", false,
			"view_activities", "signup_activity", "unregister_student", "manage_activities",
			"manage_users", "manage_roles"),
	}
}

// Activities returns the demo activity catalog with initial rosters.
func Activities() []*activity.Activity {
	return []*activity.Activity{
		{
			Name:            "Chess Club",
			Description:     "Learn strategies and compete in chess tournaments",
			Schedule:        "Fridays, 3:30 PM - 5:00 PM",
			MaxParticipants: 12,
			Participants:    []string{"michael@mergington.edu", "daniel@mergington.edu"},
			Owner:           "teacher@mergington.edu",
		},
		{
			Name:            "Programming Class",
			Description:     "Learn programming fundamentals and build software projects",
			Schedule:        "Tuesdays and Thursdays, 3:30 PM - 4:30 PM",
			MaxParticipants: 20,
			Participants:    []string{"emma@mergington.edu", "sophia@mergington.edu"},
			Owner:           "teacher@mergington.edu",
		},
		{
			Name:            "Gym Class",
			Description:     "Physical education and sports activities",
			Schedule:        "Mondays, Wednesdays, Fridays, 2:00 PM - 3:00 PM",
			MaxParticipants: 30,
			Participants:    []string{"john@mergington.edu", "olivia@mergington.edu"},
			Owner:           "admin@mergington.edu",
		},
		{
			Name:            "Soccer Team",
			Description:     "Join the school soccer team and compete in matches",
			Schedule:        "Tuesdays and Thursdays, 4:00 PM - 5:30 PM",
			MaxParticipants: 22,
			Participants:    []string{"liam@mergington.edu", "noah@mergington.edu"},
			Owner:           "teacher@mergington.edu",
		},
		{
			Name:            "Basketball Team",
			Description:     "Practice and play basketball with the school team",
			Schedule:        "Wednesdays and Fridays, 3:30 PM - 5:00 PM",
			MaxParticipants: 15,
			Participants:    []string{"ava@mergington.edu", "mia@mergington.edu"},
			Owner:           "teacher@mergington.edu",
		},
		{
			Name:            "Art Club",
			Description:     "Explore your creativity through painting and drawing",
			Schedule:        "Thursdays, 3:30 PM - 5:00 PM",
			MaxParticipants: 15,
			Participants:    []string{"amelia@mergington.edu", "harper@mergington.edu"},
			Owner:           "admin@mergington.edu",
		},
		{
			Name:            "Drama Club",
			Description:     "Act, direct, and produce plays and performances",
			Schedule:        "Mondays and Wednesdays, 4:00 PM - 5:30 PM",
			MaxParticipants: 20,
			Participants:    []string{"ella@mergington.edu", "scarlett@mergington.edu"},
			Owner:           "teacher@mergington.edu",
		},
		{
			Name:            "Math Club",
			Description:     "Solve challenging problems and participate in math competitions",
			Schedule:        "Tuesdays, 3:30 PM - 4:30 PM",
			MaxParticipants: 10,
			Participants:    []string{"james@mergington.edu", "benjamin@mergington.edu"},
			Owner:           "teacher@mergington.edu",
		},
		{
			Name:            "Debate Team",
			Description:     "Develop public speaking and argumentation skills",
			Schedule:        "Fridays, 4:00 PM - 5:30 PM",
			MaxParticipants: 12,
			Participants:    []string{"charlotte@mergington.edu", "henry@mergington.edu"},
			Owner:           "admin@mergington.edu",
		},
	}
}

// Demo provisions the demo tenant into st and returns it. The returned
// tenant carries its initial auth key; the caller decides whether to log
// it. Roster emails are not accounts, only staff authenticate.
func Demo(ctx context.Context, st store.Store, keyTTL time.Duration) (*tenant.Tenant, error) {
	tn, err := st.CreateTenant(ctx, TenantName, TenantDomain, keyTTL)
	if err != nil {
		return nil, fmt.Errorf("create demo tenant: %w", err)
	}

	byName := make(map[string]authz.Role)
	for _, r := range Roles() {
		if err := st.PutRole(ctx, tn.ID, r); err != nil {
			return nil, fmt.Errorf("seed role %s: %w", r.Name, err)
		}
		byName[r.Name] = r
	}

	staff := []*authz.User{
		authz.NewUser("teacher@mergington.edu", "Ms. Johnson", byName["teacher"]),
		authz.NewUser("admin@mergington.edu", "Dr. Smith", byName["admin"]),
	}

	// Staff own the activities they run; ownership feeds the ownership
	// authorization strategy.
	acts := Activities()
	for _, u := range staff {
		for _, a := range acts {
			if a.Owner == u.Email {
				u.GrantOwnership(a.Name)
			}
		}
		if err := st.PutUser(ctx, tn.ID, u); err != nil {
			return nil, fmt.Errorf("seed user %s: %w", u.Email, err)
		}
	}

	for _, a := range acts {
		if err := st.PutActivity(ctx, tn.ID, a); err != nil {
			return nil, fmt.Errorf("seed activity %s: %w", a.Name, err)
		}
	}
	return tn, nil
}
