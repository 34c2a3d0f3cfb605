package salary

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/dvloznov/edufin/internal/domain"
)

// ErrUnknownStaff is returned when a staff id is not in the directory.
var ErrUnknownStaff = errors.New("unknown staff member")

// Directory resolves staff members by id.
type Directory interface {
	Get(ctx context.Context, id string) (domain.Staff, error)
	List(ctx context.Context) ([]domain.Staff, error)
}

// MemoryDirectory is a fixed in-process directory.
type MemoryDirectory struct {
	mu    sync.RWMutex
	staff []domain.Staff
}

// NewMemoryDirectory copies staff into a directory.
func NewMemoryDirectory(staff []domain.Staff) *MemoryDirectory {
	return &MemoryDirectory{staff: slices.Clone(staff)}
}

// Get implements Directory.
func (d *MemoryDirectory) Get(_ context.Context, id string) (domain.Staff, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, s := range d.staff {
		if s.ID == id {
			return s, nil
		}
	}
	return domain.Staff{}, fmt.Errorf("Get %q: %w", id, ErrUnknownStaff)
}

// List implements Directory.
func (d *MemoryDirectory) List(context.Context) ([]domain.Staff, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Clone(d.staff), nil
}

func joined(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SeedStaff is the demo staff roster.
func SeedStaff() []domain.Staff {
	return []domain.Staff{
		{ID: "staff-1", Number: 1, Name: "Ajay Kumar", Designation: "Teacher", Department: "Science", JoiningDate: joined(2020, time.May, 15), Email: "ajay.kumar@example.com"},
		{ID: "staff-2", Number: 2, Name: "Priya Singh", Designation: "Teacher", Department: "Mathematics", JoiningDate: joined(2019, time.July, 10), Email: "priya.singh@example.com"},
		{ID: "staff-3", Number: 3, Name: "Rohit Sharma", Designation: "Teacher", Department: "Physical Education", JoiningDate: joined(2021, time.February, 22), Email: "rohit.sharma@example.com"},
		{ID: "staff-4", Number: 4, Name: "Deepika Patel", Designation: "Administrator", Department: "Admin", JoiningDate: joined(2018, time.November, 5), Email: "deepika.patel@example.com"},
		{ID: "staff-5", Number: 5, Name: "Amit Verma", Designation: "Librarian", Department: "Library", JoiningDate: joined(2020, time.January, 15), Email: "amit.verma@example.com"},
		{ID: "staff-6", Number: 6, Name: "Neha Gupta", Designation: "Accountant", Department: "Finance", JoiningDate: joined(2019, time.September, 1), Email: "neha.gupta@example.com"},
		{ID: "staff-7", Number: 7, Name: "Sanjay Mishra", Designation: "Teacher", Department: "History", JoiningDate: joined(2017, time.June, 30), Email: "sanjay.mishra@example.com"},
		{ID: "staff-8", Number: 8, Name: "Kavita Joshi", Designation: "Teacher", Department: "English", JoiningDate: joined(2020, time.August, 12), Email: "kavita.joshi@example.com"},
	}
}

var _ Directory = (*MemoryDirectory)(nil)
