package command

import (
	"fmt"
)

// Built-in request names.
const (
	NameCreeper = "creeper"
	NameJack    = "jack"
	NameGodsend = "godsend"
	NameChaos   = "chaos"
	NameKill    = "kill"
)

// Options parameterize the built-in descriptors.
type Options struct {
	// Target is the player the commands are centered on.
	Target       string
	Radius       int
	MaxCount     int
	DefaultCount int
}

// DefaultOptions returns the stock settings.
func DefaultOptions() Options {
	return Options{
		Target:       "RhamzThev",
		Radius:       5,
		MaxCount:     100,
		DefaultCount: 4,
	}
}

// Builtins returns the descriptors for the stock command set.
func Builtins(opts Options) []Descriptor {
	return []Descriptor{
		{
			Name:         NameCreeper,
			Unit:         "creepers",
			DefaultCount: opts.DefaultCount,
			MaxCount:     opts.MaxCount,
			Expand:       opts.creeper,
		},
		{Name: NameJack, Expand: opts.jack},
		{Name: NameGodsend, Expand: opts.godsend},
		{Name: NameChaos, Expand: opts.chaos},
		{Name: NameKill, Expand: opts.kill},
	}
}

// NewBuiltinRegistry returns a registry holding Builtins(opts).
func NewBuiltinRegistry(opts Options) (*Registry, error) {
	return NewRegistry(Builtins(opts)...)
}

func customName(label string) string {
	return fmt.Sprintf(`CustomName:'"%s"'`, label)
}

// creeper surrounds the target with charged creepers.
func (o Options) creeper(args Args) Batch {
	tag := ""
	if args.Label != "" {
		tag = "," + customName(args.Label)
	}

	points := CirclePoints(args.Count, o.Radius)
	batch := make(Batch, 0, len(points))
	for _, p := range points {
		batch = append(batch, fmt.Sprintf("execute at %s run summon creeper ~%d ~0 ~%d {powered:1%s}",
			o.Target, p.Y, p.X, tag))
	}
	return batch
}

// jack summons a chicken jockey and hands out the items to deal with it.
func (o Options) jack(args Args) Batch {
	tag := ""
	if args.Label != "" {
		tag = "," + customName(args.Label)
	}

	return Batch{
		fmt.Sprintf(`execute at %s run summon chicken ~3 ~ ~ {Passengers:[{id:"zombie",IsBaby:1%s}]}`, o.Target, tag),
		fmt.Sprintf("give %s water_bucket 1", o.Target),
		fmt.Sprintf("give %s flint_and_steel 1", o.Target),
		fmt.Sprintf("give %s crafting_table 1", o.Target),
	}
}

var godsendItems = []string{
	"netherite_helmet{Enchantments:[{id:protection,lvl:4},{id:respiration,lvl:3},{id:aqua_affinity,lvl:1},{id:unbreaking,lvl:3},{id:mending,lvl:1},{id:thorns,lvl:3}]} 1",
	"netherite_chestplate{Enchantments:[{id:protection,lvl:4},{id:unbreaking,lvl:3},{id:mending,lvl:1},{id:thorns,lvl:3}]} 1",
	"netherite_leggings{Enchantments:[{id:protection,lvl:4},{id:unbreaking,lvl:3},{id:mending,lvl:1},{id:thorns,lvl:3}]} 1",
	"netherite_boots{Enchantments:[{id:protection,lvl:4},{id:feather_falling,lvl:4},{id:depth_strider,lvl:3},{id:soul_speed,lvl:3},{id:unbreaking,lvl:3},{id:mending,lvl:1},{id:thorns,lvl:3}]} 1",
	"netherite_sword{Enchantments:[{id:sharpness,lvl:5},{id:looting,lvl:3},{id:sweeping,lvl:3},{id:unbreaking,lvl:3},{id:mending,lvl:1},{id:fire_aspect,lvl:2},{id:knockback,lvl:2}]} 1",
	"netherite_axe{Enchantments:[{id:sharpness,lvl:5},{id:efficiency,lvl:5},{id:unbreaking,lvl:3},{id:mending,lvl:1}]} 1",
	"netherite_pickaxe{Enchantments:[{id:efficiency,lvl:5},{id:unbreaking,lvl:3},{id:mending,lvl:1},{id:fortune,lvl:3}]} 1",
	"netherite_shovel{Enchantments:[{id:efficiency,lvl:5},{id:unbreaking,lvl:3},{id:mending,lvl:1},{id:silk_touch,lvl:1}]} 1",
	"netherite_hoe{Enchantments:[{id:efficiency,lvl:5},{id:unbreaking,lvl:3},{id:mending,lvl:1},{id:fortune,lvl:3}]} 1",
	"bow{Enchantments:[{id:power,lvl:5},{id:unbreaking,lvl:3},{id:infinity,lvl:1},{id:flame,lvl:1}]} 1",
	"bow{Enchantments:[{id:power,lvl:5},{id:unbreaking,lvl:3},{id:mending,lvl:1},{id:flame,lvl:1}]} 1",
	"arrow 64",
}

// godsend gives a full enchanted netherite kit.
func (o Options) godsend(Args) Batch {
	batch := make(Batch, 0, len(godsendItems))
	for _, item := range godsendItems {
		batch = append(batch, fmt.Sprintf("give %s %s", o.Target, item))
	}
	return batch
}

// chaos summons both bosses.
func (o Options) chaos(args Args) Batch {
	tag := ""
	if args.Label != "" {
		tag = " {" + customName(args.Label) + "}"
	}

	return Batch{
		fmt.Sprintf("execute at %s run summon wither ~10 ~ ~%s", o.Target, tag),
		fmt.Sprintf("execute at %s run summon ender_dragon ~10 ~ ~%s", o.Target, tag),
	}
}

// kill removes every non-player entity.
func (o Options) kill(Args) Batch {
	return Batch{"kill @e[type=!player]"}
}
