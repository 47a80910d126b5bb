package dog

import (
	"time"

	"pfotencard-backend/internal/models"
	"pfotencard-backend/internal/services"
)

const dateLayout = "2006-01-02"

type DogRequest struct {
	Name      string `json:"name" binding:"required,max=255"`
	Breed     string `json:"breed" binding:"max=255"`
	BirthDate string `json:"birth_date" binding:"omitempty,datetime=2006-01-02"`
	Chip      string `json:"chip" binding:"max=50"`
}

// Input converts the request; the date has already been validated by binding.
func (r DogRequest) Input() services.DogInput {
	return services.DogInput{
		Name:      r.Name,
		Breed:     r.Breed,
		BirthDate: parseDate(r.BirthDate),
		Chip:      r.Chip,
	}
}

type UpdateDogRequest struct {
	Name      *string `json:"name,omitempty" binding:"omitempty,min=1,max=255"`
	Breed     *string `json:"breed,omitempty" binding:"omitempty,max=255"`
	BirthDate *string `json:"birth_date,omitempty" binding:"omitempty,datetime=2006-01-02"`
	Chip      *string `json:"chip,omitempty" binding:"omitempty,max=50"`
}

func (r UpdateDogRequest) Input() services.UpdateDogInput {
	in := services.UpdateDogInput{Name: r.Name, Breed: r.Breed, Chip: r.Chip}
	if r.BirthDate != nil {
		in.BirthDate = parseDate(*r.BirthDate)
	}
	return in
}

type DogResponse struct {
	ID        uint    `json:"id"`
	OwnerID   uint    `json:"owner_id"`
	Name      string  `json:"name"`
	Breed     string  `json:"breed"`
	BirthDate *string `json:"birth_date"`
	Chip      string  `json:"chip"`
}

func NewDogResponse(d models.Dog) DogResponse {
	resp := DogResponse{
		ID:      d.ID,
		OwnerID: d.OwnerID,
		Name:    d.Name,
		Breed:   d.Breed,
		Chip:    d.Chip,
	}
	if d.BirthDate != nil {
		s := time.Time(*d.BirthDate).Format(dateLayout)
		resp.BirthDate = &s
	}
	return resp
}

func NewDogResponses(dogs []models.Dog) []DogResponse {
	out := make([]DogResponse, 0, len(dogs))
	for _, d := range dogs {
		out = append(out, NewDogResponse(d))
	}
	return out
}

func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil
	}
	return &t
}
