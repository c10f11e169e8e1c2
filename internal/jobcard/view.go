package jobcard

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ukydev/autoserve/internal/models"
)

// LogView is a log entry with its author populated.
type LogView struct {
	By      *models.UserRef `json:"by"`
	Message string          `json:"message"`
	At      time.Time       `json:"at"`
}

// View is a job card with assignee and log authors populated.
type View struct {
	models.JobCard
	AssignedTo *models.UserRef `json:"assignedTo"`
	Logs       []LogView       `json:"logs"`
}

// populate resolves every user referenced by cards with a single query.
func (s *Service) populate(ctx context.Context, cards ...models.JobCard) ([]View, error) {
	seen := map[primitive.ObjectID]bool{}
	var ids []primitive.ObjectID
	add := func(id primitive.ObjectID) {
		if !id.IsZero() && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, c := range cards {
		if c.AssignedTo != nil {
			add(*c.AssignedTo)
		}
		for _, l := range c.Logs {
			add(l.By)
		}
	}

	refs := map[primitive.ObjectID]*models.UserRef{}
	if len(ids) > 0 {
		users, err := s.users.FindUsersByIDs(ctx, ids)
		if err != nil {
			return nil, errors.Wrap(err, "populate users")
		}
		for i := range users {
			refs[users[i].ID] = users[i].Ref()
		}
	}

	views := make([]View, 0, len(cards))
	for _, c := range cards {
		v := View{JobCard: c, Logs: make([]LogView, 0, len(c.Logs))}
		if c.AssignedTo != nil {
			v.AssignedTo = refs[*c.AssignedTo]
		}
		for _, l := range c.Logs {
			lv := LogView{Message: l.Message, At: l.At}
			if ref, ok := refs[l.By]; ok {
				lv.By = &models.UserRef{ID: ref.ID, Name: ref.Name, Email: ref.Email}
			}
			v.Logs = append(v.Logs, lv)
		}
		views = append(views, v)
	}
	return views, nil
}

func (s *Service) populateOne(ctx context.Context, card *models.JobCard) (*View, error) {
	views, err := s.populate(ctx, *card)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}
