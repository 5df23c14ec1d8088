package database

import (
	"database/sql"
	"fmt"

	"sportscast-proxy/work/logger"
	"sportscast-proxy/work/resolver"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// LoadCatalogue reads the canonical channel catalogue from a SQLite file and
// builds a resolver table from it. The database is static lookup data
// prepared offline; it is opened read-only, fully loaded, and closed again.
//
// Expected schema:
//
//	CREATE TABLE channels (
//	    id            TEXT PRIMARY KEY,
//	    display_order INTEGER NOT NULL,
//	    logo          TEXT NOT NULL DEFAULT '',
//	    allowed       INTEGER NOT NULL DEFAULT 1
//	);
//	CREATE TABLE aliases (
//	    alias      TEXT PRIMARY KEY,
//	    channel_id TEXT NOT NULL REFERENCES channels(id)
//	);
func LoadCatalogue(path string) (*resolver.Table, error) {
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("failed to open catalogue database: %w", err)
	}
	defer db.Close()

	channels, err := loadChannels(db)
	if err != nil {
		return nil, err
	}
	if len(channels) == 0 {
		return nil, fmt.Errorf("catalogue database %s contains no channels", path)
	}

	aliases, err := loadAliases(db)
	if err != nil {
		return nil, err
	}

	logger.Info("Loaded channel catalogue from %s: %d channels, %d aliases", path, len(channels), len(aliases))

	return resolver.NewTable(channels, aliases), nil
}

func loadChannels(db *sql.DB) ([]resolver.ChannelInfo, error) {
	rows, err := db.Query("SELECT id, display_order, logo, allowed FROM channels")
	if err != nil {
		return nil, fmt.Errorf("failed to query channels: %w", err)
	}
	defer rows.Close()

	var channels []resolver.ChannelInfo
	for rows.Next() {
		var info resolver.ChannelInfo
		var allowed int
		if err := rows.Scan(&info.ID, &info.DisplayOrder, &info.Logo, &allowed); err != nil {
			return nil, fmt.Errorf("failed to scan channel row: %w", err)
		}
		info.Allowed = allowed != 0
		channels = append(channels, info)
	}

	return channels, rows.Err()
}

func loadAliases(db *sql.DB) (map[string]string, error) {
	rows, err := db.Query("SELECT alias, channel_id FROM aliases")
	if err != nil {
		return nil, fmt.Errorf("failed to query aliases: %w", err)
	}
	defer rows.Close()

	aliases := make(map[string]string)
	for rows.Next() {
		var alias, channelID string
		if err := rows.Scan(&alias, &channelID); err != nil {
			return nil, fmt.Errorf("failed to scan alias row: %w", err)
		}
		aliases[alias] = channelID
	}

	return aliases, rows.Err()
}
