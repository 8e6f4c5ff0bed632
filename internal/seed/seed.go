// Package seed provides the initial task catalog and demo expenses.
package seed

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"tally/internal/core"
)

// NewID returns a short random identifier for tasks and objectives.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// DefaultTasks is the catalog used when none is stored.
func DefaultTasks() []core.Task {
	return []core.Task{
		{ID: NewID(), Name: "Sample Task A", Objectives: []core.Objective{
			{ID: NewID(), Name: "Objective 1", Points: 10},
			{ID: NewID(), Name: "Objective 2", Points: 20},
		}},
		{ID: NewID(), Name: "Sample Task B", Objectives: []core.Objective{
			{ID: NewID(), Name: "Reach Zone", Points: 15},
		}},
	}
}

type catalogFile struct {
	Tasks []taskYAML `yaml:"tasks"`
}

type taskYAML struct {
	ID         string          `yaml:"id,omitempty"`
	Name       string          `yaml:"name"`
	Objectives []objectiveYAML `yaml:"objectives"`
}

type objectiveYAML struct {
	ID     string `yaml:"id,omitempty"`
	Name   string `yaml:"name"`
	Points int    `yaml:"points"`
}

// ParseTasks decodes a YAML catalog. Entries without a name are skipped,
// missing ids are generated and negative points become 0.
func ParseTasks(data []byte) ([]core.Task, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("unmarshal task catalog: %w", err)
	}
	tasks := make([]core.Task, 0, len(f.Tasks))
	for _, ty := range f.Tasks {
		name := strings.TrimSpace(ty.Name)
		if name == "" {
			continue
		}
		t := core.Task{ID: ty.ID, Name: name, Objectives: []core.Objective{}}
		if t.ID == "" {
			t.ID = NewID()
		}
		for _, oy := range ty.Objectives {
			oname := strings.TrimSpace(oy.Name)
			if oname == "" {
				continue
			}
			o := core.Objective{ID: oy.ID, Name: oname, Points: max(oy.Points, 0)}
			if o.ID == "" {
				o.ID = NewID()
			}
			t.Objectives = append(t.Objectives, o)
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// LoadTasksFile reads a YAML catalog from path.
func LoadTasksFile(path string) ([]core.Task, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read task catalog: %w", err)
	}
	return ParseTasks(data)
}

// MarshalTasks renders a catalog in the format ParseTasks reads.
func MarshalTasks(tasks []core.Task) ([]byte, error) {
	f := catalogFile{Tasks: make([]taskYAML, 0, len(tasks))}
	for _, t := range tasks {
		ty := taskYAML{ID: t.ID, Name: t.Name}
		for _, o := range t.Objectives {
			ty.Objectives = append(ty.Objectives, objectiveYAML(o))
		}
		f.Tasks = append(f.Tasks, ty)
	}
	out, err := yaml.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("marshal task catalog: %w", err)
	}
	return out, nil
}

// SampleExpenses returns three demo expenses dated today, yesterday and two
// days ago in now's location.
func SampleExpenses(now time.Time) []core.Expense {
	base := now.UnixMilli()
	day := func(back int) core.Date {
		y, m, d := now.AddDate(0, 0, -back).Date()
		return core.Date{Time: time.Date(y, m, d, 0, 0, 0, 0, now.Location())}
	}
	return []core.Expense{
		{ID: base + 1, Amount: core.Money{Cents: 2599}, Description: "Lunch at Italian Restaurant",
			Category: core.Food, Date: day(0), Timestamp: now.UTC()},
		{ID: base + 2, Amount: core.Money{Cents: 4500}, Description: "Gas for car",
			Category: core.Transportation, Date: day(1), Timestamp: now.AddDate(0, 0, -1).UTC()},
		{ID: base + 3, Amount: core.Money{Cents: 12000}, Description: "Grocery shopping",
			Category: core.Shopping, Date: day(2), Timestamp: now.AddDate(0, 0, -2).UTC()},
	}
}
