package rbac

// Simple default policy. Expand as needed.
var RolePermissions = map[string][]string{
	"student": {
		"grade:view-own",
		"achievement:view",
		"promotion:view-own",
		"user:change_password",
	},
	"teacher": {
		"score:write",
		"recovery:write",
		"grade:view",
		"grade:compute",
		"achievement:view",
		"achievement:create",
		"suggestion:generate",
		"completeness:check",
	},
	"rector": {
		"score:write",
		"recovery:write",
		"grade:*",
		"achievement:*",
		"suggestion:*",
		"completeness:check",
		"promotion:decide",
		"promotion:view",
		"recompute:run",
		"config:write",
		"config:view",
	},
	"admin": {
		"*", // everything
	},
}
