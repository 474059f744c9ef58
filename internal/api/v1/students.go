package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/classdesk/classdesk/internal/access"
	"github.com/classdesk/classdesk/internal/domain"
)

type CreateStudentInput struct {
	Body struct {
		FullName      string `json:"full_name" minLength:"1" maxLength:"255" doc:"Student full name"`
		Email         string `json:"email,omitempty" format:"email" doc:"Student email"`
		Phone         string `json:"phone,omitempty" maxLength:"32" doc:"Student phone"`
		GuardianName  string `json:"guardian_name,omitempty" maxLength:"255" doc:"Guardian name"`
		GuardianPhone string `json:"guardian_phone,omitempty" maxLength:"32" doc:"Guardian phone"`
	}
}

type CreateStudentOutput struct {
	Body *domain.Student
}

type ListStudentsOutput struct {
	Body []*domain.Student
}

type GetStudentInput struct {
	ID uuid.UUID `path:"id" doc:"Student ID"`
}

type GetStudentOutput struct {
	Body *domain.Student
}

type UpdateStudentInput struct {
	ID   uuid.UUID `path:"id" doc:"Student ID"`
	Body struct {
		FullName      string `json:"full_name,omitempty" maxLength:"255" doc:"Student full name"`
		Email         string `json:"email,omitempty" format:"email" doc:"Student email"`
		Phone         string `json:"phone,omitempty" maxLength:"32" doc:"Student phone"`
		GuardianName  string `json:"guardian_name,omitempty" maxLength:"255" doc:"Guardian name"`
		GuardianPhone string `json:"guardian_phone,omitempty" maxLength:"32" doc:"Guardian phone"`
	}
}

type UpdateStudentOutput struct {
	Body *domain.Student
}

// RegisterStudentRoutes mounts the student records surface. Students are
// general-access records: any active member of the school may read and
// write them.
func RegisterStudentRoutes(api huma.API, store DataStore) {
	huma.Register(api, huma.Operation{
		OperationID: "create-student",
		Method:      http.MethodPost,
		Path:        "/students",
		Summary:     "Enroll a student",
		Tags:        []string{"Students"},
	}, func(ctx context.Context, input *CreateStudentInput) (*CreateStudentOutput, error) {
		sc, err := callerSession(ctx)
		if err != nil {
			return nil, err
		}
		if err := access.Authorize(sc, sc.TenantID, access.ClassStudents); err != nil {
			return nil, entityError("student", err)
		}

		now := time.Now()
		s := &domain.Student{
			ID:            uuid.New(),
			TenantID:      sc.TenantID,
			FullName:      input.Body.FullName,
			Email:         input.Body.Email,
			Phone:         input.Body.Phone,
			GuardianName:  input.Body.GuardianName,
			GuardianPhone: input.Body.GuardianPhone,
			EnrolledAt:    now,
			CreatedAt:     now,
			UpdatedAt:     now,
		}

		if err := store.Students().Create(ctx, s); err != nil {
			return nil, huma.Error500InternalServerError("failed to create student", err)
		}

		return &CreateStudentOutput{Body: s}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-students",
		Method:      http.MethodGet,
		Path:        "/students",
		Summary:     "List students",
		Tags:        []string{"Students"},
	}, func(ctx context.Context, _ *struct{}) (*ListStudentsOutput, error) {
		sc, err := callerSession(ctx)
		if err != nil {
			return nil, err
		}
		if err := access.Authorize(sc, sc.TenantID, access.ClassStudents); err != nil {
			return nil, entityError("student", err)
		}

		students, err := store.Students().List(ctx, sc.TenantID)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list students", err)
		}

		return &ListStudentsOutput{Body: students}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-student",
		Method:      http.MethodGet,
		Path:        "/students/{id}",
		Summary:     "Get a student by ID",
		Tags:        []string{"Students"},
	}, func(ctx context.Context, input *GetStudentInput) (*GetStudentOutput, error) {
		sc, err := callerSession(ctx)
		if err != nil {
			return nil, err
		}
		if err := access.Authorize(sc, sc.TenantID, access.ClassStudents); err != nil {
			return nil, entityError("student", err)
		}

		s, err := store.Students().GetByID(ctx, sc.TenantID, input.ID)
		if err != nil {
			return nil, entityError("student", err)
		}

		return &GetStudentOutput{Body: s}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-student",
		Method:      http.MethodPut,
		Path:        "/students/{id}",
		Summary:     "Update a student",
		Tags:        []string{"Students"},
	}, func(ctx context.Context, input *UpdateStudentInput) (*UpdateStudentOutput, error) {
		sc, err := callerSession(ctx)
		if err != nil {
			return nil, err
		}
		if err := access.Authorize(sc, sc.TenantID, access.ClassStudents); err != nil {
			return nil, entityError("student", err)
		}

		existing, err := store.Students().GetByID(ctx, sc.TenantID, input.ID)
		if err != nil {
			return nil, entityError("student", err)
		}

		if input.Body.FullName != "" {
			existing.FullName = input.Body.FullName
		}
		if input.Body.Email != "" {
			existing.Email = input.Body.Email
		}
		if input.Body.Phone != "" {
			existing.Phone = input.Body.Phone
		}
		if input.Body.GuardianName != "" {
			existing.GuardianName = input.Body.GuardianName
		}
		if input.Body.GuardianPhone != "" {
			existing.GuardianPhone = input.Body.GuardianPhone
		}
		existing.UpdatedAt = time.Now()

		if err := store.Students().Update(ctx, existing); err != nil {
			return nil, huma.Error500InternalServerError("failed to update student", err)
		}

		return &UpdateStudentOutput{Body: existing}, nil
	})
}
