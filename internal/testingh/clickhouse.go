package testingh

const (
	ClickhouseDB       = "test_db"
	ClickhouseUser     = "su"
	ClickhousePassword = "su"
)

// NewClickhouse starts a ClickHouse server with ClickhouseDB created and
// owned by ClickhouseUser.
func NewClickhouse(connectFn func(connURL string) error) (*Container, error) {
	return run(image{
		repository:    "clickhouse/clickhouse-server",
		tag:           "latest-alpine",
		containerPort: "9000/tcp",
		env: []string{
			"CLICKHOUSE_DB=" + ClickhouseDB,
			"CLICKHOUSE_DEFAULT_ACCESS_MANAGEMENT=1",
			"CLICKHOUSE_USER=" + ClickhouseUser,
			"CLICKHOUSE_PASSWORD=" + ClickhousePassword,
		},
	}, connectFn)
}
