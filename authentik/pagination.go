package authentik

import "github.com/jrsteele09/go-authentik-portal/internal/utils"

// UsersPageSize is the fixed page size of the user listing. The upstream call
// returns the whole collection; paging is emulated over the in-memory list,
// which holds only while upstream collections stay small.
const UsersPageSize = 10

// UserPage is one page of the user listing plus the navigation state the
// template renders.
type UserPage struct {
	Users       []User
	CurrentPage int
	TotalPages  int
	NextPage    *int
	PrevPage    *int
	Pages       []int
}

// PaginateUsers slices users into the requested 1-based page. Pages below 1
// are clamped to 1; pages past the end return an empty slice.
func PaginateUsers(users []User, page int) UserPage {
	if page < 1 {
		page = 1
	}

	totalPages := (len(users) + UsersPageSize - 1) / UsersPageSize

	start := (page - 1) * UsersPageSize
	end := start + UsersPageSize
	if start > len(users) {
		start = len(users)
	}
	if end > len(users) {
		end = len(users)
	}

	pages := make([]int, 0, totalPages)
	for p := 1; p <= totalPages; p++ {
		pages = append(pages, p)
	}

	userPage := UserPage{
		Users:       users[start:end],
		CurrentPage: page,
		TotalPages:  totalPages,
		Pages:       pages,
	}
	if page > 1 {
		userPage.PrevPage = utils.Ptr(page - 1)
	}
	if page < totalPages {
		userPage.NextPage = utils.Ptr(page + 1)
	}
	return userPage
}
