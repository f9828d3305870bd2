package timesheet

type AddHoursRequest struct {
	Date    string  `json:"date" binding:"required"`
	Project string  `json:"project"`
	Task    string  `json:"task"`
	Day     *string `json:"day"`
	Hours   float64 `json:"hours" binding:"required,gt=0"`
}

type UpdateEntryRequest struct {
	Project  string  `json:"project"`
	Task     string  `json:"task"`
	MonHours float64 `json:"mon_hours" binding:"gte=0"`
	TueHours float64 `json:"tue_hours" binding:"gte=0"`
	WedHours float64 `json:"wed_hours" binding:"gte=0"`
	ThuHours float64 `json:"thu_hours" binding:"gte=0"`
	FriHours float64 `json:"fri_hours" binding:"gte=0"`
	SatHours float64 `json:"sat_hours" binding:"gte=0"`
	SunHours float64 `json:"sun_hours" binding:"gte=0"`
}

type TimesheetResponse struct {
	ID        string `json:"id"`
	UserID    string `json:"user_id"`
	WeekStart string `json:"week_start"`
	WeekEnd   string `json:"week_end"`
	Status    string `json:"status"`
}

type EntryResponse struct {
	ID       string  `json:"id,omitempty"`
	Project  string  `json:"project"`
	Task     string  `json:"task"`
	Source   string  `json:"source"`
	MonHours float64 `json:"mon_hours"`
	TueHours float64 `json:"tue_hours"`
	WedHours float64 `json:"wed_hours"`
	ThuHours float64 `json:"thu_hours"`
	FriHours float64 `json:"fri_hours"`
	SatHours float64 `json:"sat_hours"`
	SunHours float64 `json:"sun_hours"`
	Total    float64 `json:"total"`
	Virtual  bool    `json:"virtual"`
}

// TimesheetView is the consolidated weekly projection served to clients:
// the timesheet (if one exists), its persisted entries, virtual leave rows,
// and the footer totals.
type TimesheetView struct {
	Timesheet  *TimesheetResponse `json:"timesheet"`
	Entries    []EntryResponse    `json:"entries"`
	DayTotals  [7]float64         `json:"day_totals"`
	GrandTotal float64            `json:"grand_total"`
}
