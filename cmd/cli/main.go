package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/cpike5/discordbot-sub005/internal/announce"
	"github.com/cpike5/discordbot-sub005/internal/config"
	"github.com/cpike5/discordbot-sub005/internal/datalayer"
	"github.com/cpike5/discordbot-sub005/internal/generator"
	"github.com/cpike5/discordbot-sub005/internal/schedule"
)

var stdinReader = bufio.NewReader(os.Stdin)

var uuidGenerator = generator.UUIDV4Generator{}

func prompt(label string) string {
	fmt.Printf("%s: ", label)
	input, _ := stdinReader.ReadString('\n')
	return strings.TrimSpace(input)
}

var guildIDFlag = &cli.StringFlag{
	Name:     "guild-id",
	Usage:    "ID of the guild to operate on",
	Required: true,
}

func main() {
	if err := config.LoadEnv(); err != nil && !os.IsNotExist(err) {
		log.Fatalf("Failed to load .env file: %v", err)
	}

	pool, err := datalayer.NewPostgresPoolFromEnv()
	if err != nil {
		log.Fatalf("Failed to create postgres pool: %v", err)
	}
	if err := datalayer.MigratePostgres(pool); err != nil {
		log.Fatalf("Failed to migrate postgres: %v", err)
	}
	repo := announce.NewRepository(pool)

	storage, err := datalayer.NewMinioStorageFromEnv()
	if err != nil {
		log.Fatalf("Failed to create minio storage: %v", err)
	}

	app := &cli.App{
		Name:        "discordbot-cli",
		Description: "A development CLI for managing sounds and announcements without Discord",
		Commands: []*cli.Command{
			{
				Name:  "sound",
				Usage: "Manage a guild's uploaded sounds",
				Subcommands: []*cli.Command{
					{
						Name:      "put",
						Usage:     "Upload an audio file as a guild sound",
						ArgsUsage: "<file>",
						Flags: []cli.Flag{
							guildIDFlag,
							&cli.StringFlag{
								Name:  "name",
								Usage: "Sound name. Defaults to the file name without extension",
							},
						},
						Action: func(c *cli.Context) error {
							path := c.Args().First()
							if path == "" {
								return cli.Exit("Please provide a file to upload", 1)
							}
							name := c.String("name")
							if name == "" {
								name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
							}

							f, err := os.Open(path)
							if err != nil {
								return cli.Exit("Failed to open file: "+err.Error(), 1)
							}
							defer f.Close()
							stat, err := f.Stat()
							if err != nil {
								return cli.Exit("Failed to stat file: "+err.Error(), 1)
							}

							key := datalayer.SoundKey(c.String("guild-id"), name)
							if err := storage.Put(c.Context, key, f, datalayer.PutOptions{Size: stat.Size()}); err != nil {
								return cli.Exit("Failed to upload sound: "+err.Error(), 1)
							}
							log.Printf("Uploaded %s as %q", path, name)
							return nil
						},
					},
					{
						Name:  "list",
						Usage: "List a guild's sounds",
						Flags: []cli.Flag{guildIDFlag},
						Action: func(c *cli.Context) error {
							sounds, err := storage.List(c.Context, "sounds/"+c.String("guild-id"))
							if err != nil {
								return cli.Exit("Failed to list sounds: "+err.Error(), 1)
							}
							if len(sounds) == 0 {
								log.Println("No sounds uploaded for the specified guild.")
								return nil
							}
							for _, name := range sounds {
								log.Println(name)
							}
							return nil
						},
					},
				},
			},
			{
				Name:  "clip",
				Usage: "Manage vox clip assets",
				Subcommands: []*cli.Command{
					{
						Name:      "put",
						Usage:     "Upload a raw PCM clip for a (group, token) pair",
						ArgsUsage: "<file>",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "group", Usage: "Clip group, e.g. a voice name", Required: true},
							&cli.StringFlag{Name: "token", Usage: "The word this clip speaks", Required: true},
						},
						Action: func(c *cli.Context) error {
							path := c.Args().First()
							if path == "" {
								return cli.Exit("Please provide a PCM file to upload", 1)
							}

							f, err := os.Open(path)
							if err != nil {
								return cli.Exit("Failed to open file: "+err.Error(), 1)
							}
							defer f.Close()
							stat, err := f.Stat()
							if err != nil {
								return cli.Exit("Failed to stat file: "+err.Error(), 1)
							}

							assets := datalayer.NewClipAssetSource(pool, storage)
							if err := assets.Register(c.Context, c.String("group"), c.String("token"), f, stat.Size()); err != nil {
								return cli.Exit("Failed to register clip: "+err.Error(), 1)
							}
							log.Printf("Registered clip %s/%s", c.String("group"), c.String("token"))
							return nil
						},
					},
				},
			},
			{
				Name:  "announce",
				Usage: "Manage scheduled announcements",
				Subcommands: []*cli.Command{
					{
						Name:  "add",
						Usage: "Add a new announcement",
						Flags: []cli.Flag{guildIDFlag},
						Action: func(c *cli.Context) error {
							name := prompt("Enter announcement name")
							sound := prompt("Enter sound name")
							cron := prompt("Enter cron expression (e.g., '0 9 * * *')")
							if err := schedule.ValidateCron(cron); err != nil {
								return cli.Exit("Invalid cron expression: "+err.Error(), 1)
							}

							id, _ := uuidGenerator.Next()
							a := announce.Announcement{
								ID:        id,
								GuildID:   c.String("guild-id"),
								Name:      name,
								SoundName: sound,
								Cron:      cron,
							}
							if err := repo.Save(c.Context, a); err != nil {
								return cli.Exit("Failed to save announcement: "+err.Error(), 1)
							}
							log.Println("Announcement added successfully.")
							return nil
						},
					},
					{
						Name:  "list",
						Usage: "List a guild's announcements",
						Flags: []cli.Flag{guildIDFlag},
						Action: func(c *cli.Context) error {
							announcements, err := repo.List(c.Context, c.String("guild-id"))
							if err != nil {
								return cli.Exit("Failed to list announcements: "+err.Error(), 1)
							}
							if len(announcements) == 0 {
								log.Println("No announcements found for the specified guild.")
								return nil
							}
							for _, a := range announcements {
								log.Printf("%s: plays %s on %q", a.Name, a.SoundName, a.Cron)
							}
							return nil
						},
					},
					{
						Name:  "remove",
						Usage: "Remove an announcement",
						Flags: []cli.Flag{
							guildIDFlag,
							&cli.StringFlag{Name: "name", Usage: "Name of the announcement", Required: true},
						},
						Action: func(c *cli.Context) error {
							if err := repo.Delete(c.Context, c.String("guild-id"), c.String("name")); err != nil {
								return cli.Exit("Failed to remove announcement: "+err.Error(), 1)
							}
							log.Println("Announcement removed.")
							return nil
						},
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("Error running CLI: %v", err)
	}
}
