package mcpkit

// UserInfo is one entry in the user fixture.
type UserInfo struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Active bool   `json:"active"`
}

// UserList is the structured result of get_user_list.
type UserList struct {
	Total int        `json:"total"`
	Users []UserInfo `json:"users"`
}

var allUsers = []UserInfo{
	{ID: 1, Name: "Alice Smith", Email: "alice@example.com", Role: "admin", Active: true},
	{ID: 2, Name: "Bob Johnson", Email: "bob@example.com", Role: "user", Active: true},
	{ID: 3, Name: "Charlie Brown", Email: "charlie@example.com", Role: "user", Active: true},
	{ID: 4, Name: "Diana Prince", Email: "diana@example.com", Role: "moderator", Active: false},
	{ID: 5, Name: "Eve Davis", Email: "eve@example.com", Role: "user", Active: false},
}

// UserListing filters the fixture and wraps it with its count.
func UserListing(includeInactive bool) UserList {
	var users []UserInfo
	for _, u := range allUsers {
		if includeInactive || u.Active {
			users = append(users, u)
		}
	}
	return UserList{Total: len(users), Users: users}
}
