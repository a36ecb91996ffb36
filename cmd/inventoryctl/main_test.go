package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"inventory-system/internal/database/dbtest"
	"inventory-system/internal/database/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type cli struct {
	db     *gorm.DB
	open   func() (*gorm.DB, error)
	opened []*gorm.DB
}

func newCLI(t *testing.T) *cli {
	t.Helper()
	db, open := dbtest.NewWithOpener(t)
	return &cli{db: db, open: open}
}

func (c *cli) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	a := &app{
		openDB: func() (*gorm.DB, error) {
			conn, err := c.open()
			if err == nil {
				c.opened = append(c.opened, conn)
			}
			return conn, err
		},
		log: zap.NewNop(),
	}
	root := newRootCmd(a)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestMigrate(t *testing.T) {
	c := newCLI(t)

	out, err := c.run(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "Migrations applied")
}

func TestCommandsCloseTheirConnection(t *testing.T) {
	c := newCLI(t)

	_, err := c.run(t, "low-stock")
	require.NoError(t, err)
	_, err = c.run(t, "promote-staff", "nobody")
	require.Error(t, err)

	require.Len(t, c.opened, 2)
	for _, conn := range c.opened {
		sqlDB, err := conn.DB()
		require.NoError(t, err)
		assert.Error(t, sqlDB.Ping(), "connection closed after the command")
	}
	assert.NoError(t, c.db.Exec("SELECT 1").Error)
}

func TestPromoteStaff(t *testing.T) {
	c := newCLI(t)
	db := c.db
	user := dbtest.CreateUser(t, db, "carol", false)

	out, err := c.run(t, "promote-staff", "carol")
	require.NoError(t, err)
	assert.Contains(t, out, "carol is now staff")

	var reloaded models.User
	require.NoError(t, db.First(&reloaded, user.ID).Error)
	assert.True(t, reloaded.IsStaff)

	_, err = c.run(t, "promote-staff", "nobody")
	assert.Error(t, err)

	_, err = c.run(t, "promote-staff")
	assert.Error(t, err)
}

func TestLowStock(t *testing.T) {
	c := newCLI(t)
	db := c.db
	alice := dbtest.CreateUser(t, db, "alice", false)
	bob := dbtest.CreateUser(t, db, "bob", false)
	dbtest.CreateItem(t, db, alice.ID, "A-LOW", 1, 5, "2.00")
	dbtest.CreateItem(t, db, alice.ID, "A-OK", 10, 5, "2.00")
	dbtest.CreateItem(t, db, bob.ID, "B-LOW", 0, 3, "2.00")

	out, err := c.run(t, "low-stock")
	require.NoError(t, err)
	assert.Contains(t, out, "A-LOW")
	assert.Contains(t, out, "B-LOW")
	assert.NotContains(t, out, "A-OK")

	out, err = c.run(t, "low-stock", "--owner", itoa(alice.ID))
	require.NoError(t, err)
	assert.Contains(t, out, "A-LOW")
	assert.NotContains(t, out, "B-LOW")
}

func TestExportCSVToFile(t *testing.T) {
	c := newCLI(t)
	db := c.db
	alice := dbtest.CreateUser(t, db, "alice", false)
	dbtest.CreateItem(t, db, alice.ID, "A-1", 4, 2, "3.50")

	path := filepath.Join(t.TempDir(), "inventory.csv")
	_, err := c.run(t, "export-csv", "-o", path)
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "A-1")
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
