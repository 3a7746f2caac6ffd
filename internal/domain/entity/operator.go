package entity

// Roles de operario. La autenticación vive fuera de este servicio; el rol llega en el JWT.
const (
	RoleAdmin    = "admin"
	RoleOperario = "operario"
)
