package theme

// Non-CSS keys configure UI components only.
var nonCSSKeys = []string{
	"progressIndicators",
	"charts",
	"landingPageTitle",
	"disableSkillTreeBrand",
	"disableSearchButton",
	"disableBreadcrumb",
	"iconColors",
	"prerequisites",
	"circleProgressInteriorTextColor",
	"disableEncouragementsConfetti",
}

// Dual keys are written as CSS and handed to UI components as well.
var dualKeys = []string{
	"pageTitleTextColor",
	"pageTitle",
	"skillTreeBrandColor",
	"infoCards",
	"backgroundColor",
	"textPrimaryColor",
	"textSecondaryColor",
	"tiles",
	"breadcrumb",
}

const solidBorder = "{ border-style: solid !important; border-width: 1px !important; }"

var keyPathCSS = map[string]string{
	"tiles.borderColor": ".sd-theme-home .p-card, .p-autocomplete-panel.p-component " + solidBorder,
	"tiles.backgroundColor": ".sd-theme-home .sd-theme-summary-cards .p-card.p-component " + solidBorder + " " +
		".sd-theme-home .badge-catalog-item .p-card " + solidBorder + " " +
		".sd-theme-home .toastui-editor-toolbar-group button { background-color: #f5f5f5 !important; color: #454545 !important; } " +
		".sd-theme-home .attachment-button.toastui-editor-toolbar-icons { color: #454545 !important; }",
	"textPrimaryColor": ".sd-theme-home .p-avatar.p-component " + solidBorder +
		" body #app .sd-theme-home .p-chip.p-component  " + solidBorder +
		"  body #app .sd-theme-home .skills-card-theme-border " + solidBorder,
	"pageTitle.borderColor": ".sd-theme-home .skills-theme-page-title.p-card { border-width: 2px !important; }",
	"pageTitle.borderStyle": ".sd-theme-home .skills-theme-page-title.p-card { border-width: 2px !important; }",
}

var defaultSchema = NewSchema(map[string]*Node{
	"maxWidth": Leaf(Rule{"body #app .sd-theme-home", "max-width"}),
	"backgroundColor": Leaf(
		Rule{"body #app .sd-theme-home, .p-overlaypanel.p-component,body #app .sd-theme-background-color", "background-color"},
		Rule{"body #app .sd-theme-home .skills-theme-bottom-border-with-background-color", "border-bottom-color"},
	),
	"trophyIconColor": Leaf(Rule{"body #app .sd-theme-home .trophy-icon", "fill"}),
	"subjectTileIconColor": Leaf(Rule{"body #app .sd-theme-home .sd-theme-subject-tile-icon", "color"}),
	"pageTitleTextColor": Leaf(
		Rule{
			".sd-theme-home .skills-theme-page-title," +
				".sd-theme-home .skills-theme-page-title .poweredByContainer",
			"color",
		},
		Rule{
			"body #app .sd-theme-home .skills-badge .skills-badge-icon," +
				" body #app .sd-theme-home .skills-progress-info-card," +
				" body #app .sd-theme-home .skills-card-theme-border," +
				" body #app .sd-theme-home .card.skills-card-theme-border .card-header",
			"border-color",
		},
	),
	"pageTitle": Group(map[string]*Node{
		"textColor": Leaf(
			Rule{
				".sd-theme-home .p-card.p-component.skills-theme-page-title," +
					".sd-theme-home .p-card.p-component.skills-theme-page-title .poweredByContainer",
				"color",
			},
		),
		"borderColor": Leaf(Rule{"body #app .sd-theme-home .p-card.p-component.skills-theme-page-title", "border-color"}),
		"borderStyle": Leaf(Rule{"body #app .sd-theme-home .p-card.p-component.skills-theme-page-title", "border-style"}),
		"backgroundColor": Leaf(
			Rule{
				".sd-theme-home .p-card.p-component.skills-theme-page-title," +
					".sd-theme-home .p-card.p-component.skills-theme-page-title .p-breadcrumb.p-component",
				"background-color",
			},
		),
		"textAlign": Leaf(Rule{"body #app .sd-theme-home .skills-theme-page-title .skills-title", "text-align"}),
		"padding": Leaf(Rule{"body #app .sd-theme-home .skills-theme-page-title .skills-title", "padding"}),
		"fontSize": Leaf(Rule{".sd-theme-home .skills-theme-page-title .skills-title", "font-size"}),
		"margin": Leaf(Rule{"body #app .sd-theme-home .skills-theme-page-title", "margin"}),
	}),
	"textPrimaryColor": Leaf(
		Rule{
			".sd-theme-home .p-card," +
				".sd-theme-home .sd-theme-primary-color," +
				".p-autocomplete-overlay.p-component .sd-theme-primary-color," +
				".sd-theme-home .p-card-subtitle," +
				".sd-theme-home .text-primary,.sd-theme-home .text-color," +
				".sd-theme-home .skills-display-test-link a," +
				".sd-theme-home .p-chip-icon,.sd-theme-home .p-icon," +
				".sd-theme-home .p-avatar-icon," +
				"body #app .sd-theme-home .p-datatable .p-datatable-tbody > tr," +
				"body #app .sd-theme-home .p-datatable .p-datatable-thead > tr > th," +
				"body #app .sd-theme-home .p-paginator.p-component .p-paginator-element.p-link," +
				"body #app .sd-theme-home .toastui-editor-contents p," +
				"body #app .sd-theme-home .toastui-editor-contents h1," +
				"body #app .sd-theme-home .toastui-editor-contents h2," +
				"body #app .sd-theme-home .toastui-editor-contents h3," +
				"body #app .sd-theme-home .toastui-editor-contents h4," +
				"body #app .sd-theme-home .toastui-editor-contents h5," +
				"body #app .sd-theme-home .toastui-editor-contents h6," +
				"body #app .sd-theme-home .toastui-editor-tabs .tab-item," +
				"body #app .sd-theme-home .toastui-editor-popup label," +
				"body #app .sd-theme-home .p-chip.p-component," +
				"body #app .sd-theme-home .p-inputtext.p-component," +
				".p-listbox-option,.p-listbox-empty-message," +
				"div[data-cy=\"trainingSearchDialog\"]," +
				".p-autocomplete-panel.p-component .p-autocomplete-item," +
				".p-autocomplete-panel.p-component .p-autocomplete-item .text-orange-600," +
				".p-autocomplete-panel.p-component .p-autocomplete-item .text-orange-700," +
				".p-popover.p-component .p-panelmenu-panel .p-panelmenu-item-link," +
				".p-popover.p-component .p-panelmenu-panel .p-panelmenu-header-content," +
				"body .sd-theme-home a," +
				" body .sd-theme-home .skills-theme-skills-progress a," +
				".sd-theme-home .editor-help-footer," +
				".sd-theme-home .editor-help-footer i",
			"color",
		},
		Rule{
			".toastui-editor-popup [data-type=\"Heading\"]:hover," +
				".p-popover.p-component .p-panelmenu.p-component .p-panelmenu-header:focus .p-panelmenu-header-content .sd-theme-menu-header",
			"background-color",
		},
		Rule{
			".sd-theme-home .p-avatar.p-component," +
				" .sd-theme-home .badge-catalog-item," +
				"body #app .sd-theme-home .p-chip.p-component," +
				".sd-theme-home .editor-help-footer",
			"border-color",
		},
		Rule{
			"body #app .sd-theme-home .apexcharts-toolbar svg," +
				" body #app .sd-theme-home .vs__open-indicator",
			"fill",
		},
	),
	"textPrimaryMutedColor": Leaf(
		Rule{"body #app .sd-theme-home .todo", "color"},
		Rule{
			"body #app .sd-theme-home .skills-theme-menu:hover," +
				" body #app .sd-theme-home .apexcharts-menu.apexcharts-menu-open .apexcharts-menu-item:hover",
			"background-color",
		},
	),
	"textSecondaryColor": Leaf(Rule{".sd-theme-home .text-muted-color,.p-autocomplete-panel.p-component i", "color"}),
	"pageTitleFontSize": Leaf(Rule{"body #app .sd-theme-home .skills-page-title-text-color .skills-title", "font-size"}),
	"backButton": Group(map[string]*Node{
		"padding": Leaf(Rule{"body #app .sd-theme-home .skills-theme-page-title .skills-theme-btn", "padding"}),
		"fontSize": Leaf(Rule{"body #app .sd-theme-home .skills-theme-page-title .skills-theme-btn", "font-size"}),
		"lineHeight": Leaf(Rule{"body #app .sd-theme-home .skills-theme-page-title .skills-theme-btn", "line-height"}),
	}),
	"searchButton": Group(map[string]*Node{
		"padding": Leaf(Rule{"body #app .sd-theme-home .skills-theme-page-title .skills-search-btn", "padding"}),
		"fontSize": Leaf(Rule{"body #app .sd-theme-home .skills-theme-page-title .skills-search-btn", "font-size"}),
		"lineHeight": Leaf(Rule{"body #app .sd-theme-home .skills-theme-page-title .skills-search-btn", "line-height"}),
	}),
	"tiles": Group(map[string]*Node{
		"backgroundColor": Leaf(
			Rule{
				".sd-theme-home .p-card, .sd-theme-home .p-inputtext," +
					".sd-theme-home .p-inputgroup-addon," +
					".sd-theme-home .p-breadcrumb.p-component," +
					"body #app .sd-theme-home .p-datatable .p-datatable-tbody > tr," +
					"body #app .sd-theme-home .p-datatable .p-datatable-thead > tr > th," +
					"body #app .sd-theme-home .p-paginator.p-component," +
					"body #app .sd-theme-home .p-chip.p-component," +
					".p-autocomplete-panel.p-component,.p-popover.p-component," +
					".p-listbox.p-component,.p-autocomplete-overlay.p-component," +
					".p-popover.p-component .p-panelmenu-panel," +
					".sd-theme-home .apexcharts-menu.apexcharts-menu-open," +
					".sd-theme-home .p-avatar.p-component," +
					".sd-theme-home .toastui-editor-ww-container," +
					".sd-theme-home .toastui-editor-defaultUI-toolbar," +
					".sd-theme-home .toastui-editor-popup," +
					".sd-theme-home .editor-help-footer," +
					".sd-theme-home .sd-theme-tile-background,.p-dialog",
				"background-color",
			},
			Rule{
				".p-autocomplete-panel.p-component .p-autocomplete-item:hover," +
					".p-autocomplete-overlay.p-component .sd-theme-primary-color:hover," +
					".p-autocomplete-panel.p-component .p-autocomplete-item.p-focus," +
					".p-autocomplete-panel.p-component .p-autocomplete-item.p-focus i," +
					".p-autocomplete-panel.p-component .p-autocomplete-item:hover i," +
					".p-autocomplete-panel.p-component .p-autocomplete-item.p-focus .text-orange-600," +
					".p-autocomplete-panel.p-component .p-autocomplete-item:hover .text-orange-600," +
					".p-autocomplete-panel.p-component .p-autocomplete-item.p-focus .text-orange-700," +
					".p-autocomplete-panel.p-component .p-autocomplete-item:hover .text-orange-700," +
					".p-popover.p-component .p-panelmenu-item.p-focus > .p-panelmenu-item-content .p-panelmenu-item-link," +
					".p-popover.p-component .p-panelmenu.p-component .p-panelmenu-header:focus .p-panelmenu-header-content .sd-theme-menu-header," +
					".p-listbox-option.p-focus,.p-listbox-option:hover," +
					"body #app .sd-theme-home .sd-theme-tile-background-color," +
					"body #app .sd-theme-home .p-paginator.p-component .p-paginator-element.p-link.p-highlight," +
					"body #app .sd-theme-home .fa-stack .fa-stack-1x.fa-inverse," +
					"body #app .sd-theme-home .toastui-editor-contents pre code," +
					"body #app .sd-theme-home .toastui-editor-popup [data-type=\"Heading\"]:hover," +
					"body #app .sd-theme-home .toastui-editor-popup .drop-down .drop-down-item:hover",
				"color",
			},
		),
		"borderColor": Leaf(
			Rule{
				".sd-theme-home .p-card," +
					" .sd-theme-home .p-inputtext.p-component," +
					" .p-autocomplete-panel.p-component",
				"border-color",
			},
		),
		"watermarkIconColor": Leaf(Rule{"body #app .sd-theme-home .watermark-icon", "color"}),
		"subTitleOverlayTextColor": Leaf(Rule{"body #app .sd-theme-home .skills-progress-card .user-rank-text", "color"}),
		"subTitleOverlayBackgroundColor": Leaf(Rule{"body #app .sd-theme-home .skills-progress-card .user-rank-text", "background-color"}),
	}),
	"stars": Group(map[string]*Node{
		"unearnedColor": Leaf(
			Rule{
				"body #app .sd-theme-home .p-rating .p-rating-option .p-icon.p-rating-icon.p-rating-off-icon",
				"color",
			},
		),
		"earnedColor": Leaf(
			Rule{
				"body #app .sd-theme-home .p-rating .p-rating-option.p-rating-option-active .p-icon.p-rating-icon.p-rating-on-icon",
				"color",
			},
		),
	}),
	"graphLegendBorderColor": Leaf(
		Rule{
			"body #app .sd-theme-home .graph-legend .card-header," +
				" body #app .sd-theme-home .graph-legend .card-body",
			"border",
		},
	),
	"buttons": Group(map[string]*Node{
		"backgroundColor": Leaf(
			Rule{".sd-theme-home .p-button.p-component", "background-color"},
			Rule{
				".sd-theme-home .p-button.p-component:hover," +
					"body #app .sd-theme-home .p-button.p-component.p-highlight",
				"color",
			},
			Rule{".sd-theme-home .p-button.p-component:hover", "border-color"},
		),
		"foregroundColor": Leaf(
			Rule{".sd-theme-home .p-button.p-component", "color"},
			Rule{".sd-theme-home .p-button.p-component", "border-color"},
			Rule{
				".sd-theme-home .p-button.p-component:hover," +
					"body #app .sd-theme-home .p-button.p-component.p-highlight",
				"background-color",
			},
		),
		"disabledColor": Leaf(Rule{"body #app .sd-theme-home .p-button.p-component.p-disabled", "color"}),
		"borderColor": Leaf(Rule{".sd-theme-home .p-button.p-component", "border-color"}),
	}),
	"links": Group(map[string]*Node{
		"foregroundColor": Leaf(
			Rule{"body #app .sd-theme-home .skills-theme-link", "color"},
			Rule{"body #app .sd-theme-home .skills-theme-link", "border-color"},
			Rule{"body #app .sd-theme-home .skills-theme-link a:hover", "background-color"},
		),
		"disabledColor": Leaf(Rule{"body #app .sd-theme-home .skills-theme-link a.disabled", "color"}),
	}),
	"badges": Group(map[string]*Node{
		"backgroundColor": Leaf(Rule{"body #app .sd-theme-home .p-tag.p-component", "background-color"}),
		"backgroundColorSecondary": Leaf(Rule{"body #app .sd-theme-home .p-tag.p-component.p-tag-secondary", "background-color"}),
		"foregroundColor": Leaf(Rule{"body #app .sd-theme-home .p-tag.p-component", "color"}),
	}),
	"breadcrumb": Group(map[string]*Node{
		"linkColor": Leaf(
			Rule{
				".sd-theme-home .skills-theme-breadcrumb-container .p-breadcrumb-item-link .sd-theme-breadcrumb-item .text-primary," +
					".sd-theme-home .skills-theme-breadcrumb-container .p-breadcrumb-item-link .sd-theme-breadcrumb-item .text-muted-color",
				"color",
			},
		),
		"linkHoverColor": Leaf(
			Rule{
				".sd-theme-home .skills-theme-breadcrumb-container .p-breadcrumb-item-link .sd-theme-breadcrumb-item:hover .text-primary," +
					".sd-theme-home .skills-theme-breadcrumb-container .p-breadcrumb-item-link .sd-theme-breadcrumb-item:hover .text-muted-color",
				"color",
			},
		),
		"currentPageColor": Leaf(
			Rule{
				".sd-theme-home .skills-theme-breadcrumb-container .sd-theme-breadcrumb-item .text-color," +
					".sd-theme-home .skills-theme-breadcrumb-container .sd-theme-breadcrumb-item .text-muted-color",
				"color",
			},
		),
		"align": Leaf(
			Rule{"body #app .sd-theme-home .skills-theme-breadcrumb-container", "-ms-flex-pack"},
			Rule{"body #app .sd-theme-home .skills-theme-breadcrumb-container", "justify-content"},
		),
	}),
	"infoCards": Group(map[string]*Node{
		"backgroundColor": Leaf(Rule{"body #app .sd-theme-home .sd-theme-summary-cards .p-card", "background-color"}),
		"foregroundColor": Leaf(Rule{"body #app .sd-theme-home .sd-theme-summary-cards .p-card", "color"}),
		"borderColor": Leaf(Rule{"body #app .sd-theme-home .sd-theme-summary-cards .p-card", "border-color"}),
	}),
	"skillTreeBrandColor": Leaf(Rule{".sd-theme-home .poweredByContainer .skills-theme-brand", "color"}),
	"quiz": Group(map[string]*Node{
		"incorrectAnswerColor": Leaf(Rule{"body #app .sd-theme-home .skills-theme-quiz-incorrect-answer", "color"}),
		"correctAnswerColor": Leaf(Rule{"body #app .sd-theme-home .skills-theme-quiz-correct-answer", "color"}),
		"selectedAnswerColor": Leaf(
			Rule{"body #app .sd-theme-home .skills-theme-quiz-selected-answer", "color"},
			Rule{"body #app .sd-theme-home .skills-theme-quiz-selected-answer-row:hover", "border-color"},
		),
	}),
}, SchemaOptions{
	NonCSS:     nonCSSKeys,
	Dual:       dualKeys,
	KeyPathCSS: keyPathCSS,
})

// DefaultSchema returns the selector schema for the skills display.
func DefaultSchema() *Schema {
	return defaultSchema
}
