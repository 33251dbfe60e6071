package store

// Operation tags. Asynchronous operations are suffixed with their phase when
// observed; the remainder are synchronous actions.
const (
	OpInitializeAuth   = "auth/initializeAuth"
	OpSignInWithEmail  = "auth/signInWithEmail"
	OpSignUpWithEmail  = "auth/signUpWithEmail"
	OpSignInWithGoogle = "auth/signInWithGoogle"
	OpSignInWithApple  = "auth/signInWithApple"
	OpSignOutUser      = "auth/signOutUser"
	OpUpdateProfile    = "auth/updateProfile"
	OpAuthClearError   = "auth/clearError"

	OpToggleTheme = "theme/toggleTheme"
	OpSetTheme    = "theme/setTheme"

	OpFetchProjects        = "projects/fetchProjects"
	OpFetchProjectByID     = "projects/fetchProjectById"
	OpCreateProject        = "projects/createProject"
	OpUpdateProject        = "projects/updateProject"
	OpDeleteProject        = "projects/deleteProject"
	OpUpdateProjectStatus  = "projects/updateProjectStatus"
	OpFetchProjectTimeline = "projects/fetchProjectTimeline"
	OpCreateTimelineItem   = "projects/createTimelineItem"
	OpUpdateTimelineItem   = "projects/updateTimelineItem"
	OpProjectsClearError   = "projects/clearError"
	OpClearCurrentProject  = "projects/clearCurrentProject"
	OpProjectUpsertFeed    = "projects/upsertFromFeed"
	OpProjectRemoveFeed    = "projects/removeFromFeed"

	OpFetchTeams      = "teams/fetchTeams"
	OpFetchTeamByID   = "teams/fetchTeamById"
	OpCreateTeam      = "teams/createTeam"
	OpTeamsClearError = "teams/clearError"

	OpFetchWorkRecords     = "payroll/fetchWorkRecords"
	OpCreateWorkRecord     = "payroll/createWorkRecord"
	OpApproveWorkRecord    = "payroll/approveWorkRecord"
	OpFetchPayrollRecords  = "payroll/fetchPayrollRecords"
	OpApprovePayrollRecord = "payroll/approvePayrollRecord"
	OpPayrollClearError    = "payroll/clearError"
	OpWorkRecordUpsertFeed = "payroll/upsertWorkRecordFromFeed"

	OpFetchNotifications   = "notifications/fetchNotifications"
	OpMarkNotificationRead = "notifications/markNotificationAsRead"
	OpMarkAllRead          = "notifications/markAllNotificationsAsRead"
	OpAddNotification      = "notifications/addNotification"
	OpNotificationsClear   = "notifications/clearError"

	OpFetchCalendarEvents = "calendar/fetchCalendarEvents"
	OpCreateCalendarEvent = "calendar/createCalendarEvent"
	OpSetSyncStatus       = "calendar/setSyncStatus"
	OpCalendarClearError  = "calendar/clearError"

	OpFetchReports      = "reports/fetchReports"
	OpGenerateReport    = "reports/generateReport"
	OpReportsClearError = "reports/clearError"

	OpFetchUsers      = "users/fetchUsers"
	OpUpdateUserRole  = "users/updateUserRole"
	OpUsersClearError = "users/clearError"
)

// AuthSuccessOps are the operations whose fulfilment establishes a session.
var AuthSuccessOps = map[string]struct{}{
	OpInitializeAuth:   {},
	OpSignInWithEmail:  {},
	OpSignUpWithEmail:  {},
	OpSignInWithGoogle: {},
	OpSignInWithApple:  {},
}
